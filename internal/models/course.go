package models

import "time"

// Course represents a course of ordered topics and lessons
type Course struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
}

// Topic represents an ordered group of lessons inside a course
type Topic struct {
	ID       int    `json:"id"`
	CourseID int    `json:"courseId"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
}

// CourseListItem represents a course in user list responses
type CourseListItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	IsStarted   bool   `json:"isStarted"`
	IsActive    bool   `json:"isActive"`
	IsCompleted bool   `json:"isCompleted"`
}

// CourseDetailResponse represents a course with its topics and lessons for a user
type CourseDetailResponse struct {
	ID     int                `json:"id"`
	Title  string             `json:"title"`
	Topics []TopicWithLessons `json:"topics"`
}

// TopicWithLessons represents a topic and its lessons with per-user state
type TopicWithLessons struct {
	ID      int              `json:"id"`
	Title   string           `json:"title"`
	Order   int              `json:"order"`
	Lessons []LessonListItem `json:"lessons"`
}

// CourseProgressResponse summarizes a user's progress in a course
type CourseProgressResponse struct {
	CourseID          int        `json:"courseId"`
	TotalLessons      int        `json:"totalLessons"`
	CompletedLessons  int        `json:"completedLessons"`
	CompletionPercent int        `json:"completionPercent"`
	Status            string     `json:"status"`
	NextLessonID      *int       `json:"nextLessonId"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

// Course progress status values
const (
	CourseStatusNotStarted = "NotStarted"
	CourseStatusInProgress = "InProgress"
	CourseStatusCompleted  = "Completed"
)
