package models

// Scene represents a narrative or quiz scene attached to a course
type Scene struct {
	ID       int    `json:"id"`
	CourseID *int   `json:"courseId"`
	Order    int    `json:"order"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	ImageURL string `json:"imageUrl,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// SceneStep is one ordered step of a scene. A step with choices is a
// question step; one without is narrative only.
type SceneStep struct {
	ID       int    `json:"id"`
	SceneID  int    `json:"sceneId"`
	Order    int    `json:"order"`
	Speaker  string `json:"speaker,omitempty"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
	StepType string `json:"stepType"`
	// ChoicesJSON is a serialized list of SceneChoice, empty for narrative steps
	ChoicesJSON string `json:"-"`
}

// SceneChoice is one selectable answer of a question step
type SceneChoice struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// SceneListItem represents a scene in user list responses
type SceneListItem struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Type            string `json:"type"`
	Position        int    `json:"position"`
	IsUnlocked      bool   `json:"isUnlocked"`
	IsCompleted     bool   `json:"isCompleted"`
	RequiredLessons int    `json:"requiredLessons"`
	PassedLessons   int    `json:"passedLessons"`
}

// SceneStepResponse represents a step in user responses, with choice
// correctness stripped
type SceneStepResponse struct {
	ID       int      `json:"id"`
	Order    int      `json:"order"`
	Speaker  string   `json:"speaker,omitempty"`
	Text     string   `json:"text"`
	ImageURL string   `json:"imageUrl,omitempty"`
	AudioURL string   `json:"audioUrl,omitempty"`
	StepType string   `json:"stepType"`
	Choices  []string `json:"choices,omitempty"`
}

// SceneDetailResponse represents a scene with its steps for a user
type SceneDetailResponse struct {
	ID    int                 `json:"id"`
	Title string              `json:"title"`
	Type  string              `json:"type"`
	Steps []SceneStepResponse `json:"steps"`
}
