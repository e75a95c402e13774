package models

// Lesson represents a lesson inside a topic
type Lesson struct {
	ID       int    `json:"id"`
	TopicID  int    `json:"topicId"`
	CourseID int    `json:"courseId,omitempty"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

// LessonListItem represents a lesson in user list responses
type LessonListItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Order       int    `json:"order,omitempty"`
	IsUnlocked  bool   `json:"isUnlocked"`
	IsCompleted bool   `json:"isCompleted"`
	BestScore   int    `json:"bestScore"`
}

// LessonDetailResponse represents a lesson with its exercises for a user
type LessonDetailResponse struct {
	ID        int                `json:"id"`
	Title     string             `json:"title"`
	Exercises []ExerciseResponse `json:"exercises"`
}
