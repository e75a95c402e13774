package models

import "time"

// SceneAttempt is the single per-user, per-scene attempt record,
// mutated in place by submission and mistake replay
type SceneAttempt struct {
	ID             int        `json:"id"`
	UserID         int        `json:"userId"`
	SceneID        int        `json:"sceneId"`
	IsCompleted    bool       `json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	// DetailsJSON is the serialized ResultDetails keyed by step ID
	DetailsJSON            string  `json:"-"`
	SubmitIdempotencyKey   *string `json:"-"`
	MistakesIdempotencyKey *string `json:"-"`
}

// StepAnswerSubmission is one submitted answer for a question step
type StepAnswerSubmission struct {
	StepID int    `json:"stepId"`
	Answer string `json:"answer"`
}

// SubmitSceneRequest is the request body for a scene submission
type SubmitSceneRequest struct {
	Answers        []StepAnswerSubmission `json:"answers"`
	IdempotencyKey string                 `json:"idempotencyKey,omitempty"`
}

// SubmitSceneResponse is the outcome of a scene submission or replay
type SubmitSceneResponse struct {
	TotalQuestions int            `json:"totalQuestions"`
	CorrectAnswers int            `json:"correctAnswers"`
	IsCompleted    bool           `json:"isCompleted"`
	MistakeStepIDs []int          `json:"mistakeStepIds"`
	Answers        []AnswerDetail `json:"answers"`
}
