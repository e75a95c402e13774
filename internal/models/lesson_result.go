package models

import "time"

// LessonResult represents one stored lesson attempt
type LessonResult struct {
	ID             int       `json:"id"`
	UserID         int       `json:"userId"`
	LessonID       int       `json:"lessonId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
	// DetailsJSON is the serialized ResultDetails owned by this record
	DetailsJSON            string  `json:"-"`
	IdempotencyKey         *string `json:"-"`
	MistakesIdempotencyKey *string `json:"-"`
}

// ResultDetails is the per-item detail stored with an attempt.
// The wrong-id list is a display convenience; completion is always
// re-derived from the full answer set.
type ResultDetails struct {
	Answers    []AnswerDetail `json:"answers"`
	MistakeIDs []int          `json:"mistakeIds"`
}

// AnswerDetail records one graded answer of an attempt
type AnswerDetail struct {
	ItemID        int    `json:"itemId"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// AnswerSubmission is one submitted answer
type AnswerSubmission struct {
	ExerciseID int    `json:"exerciseId"`
	Answer     string `json:"answer"`
}

// SubmitLessonRequest is the request body for a lesson submission
type SubmitLessonRequest struct {
	Answers        []AnswerSubmission `json:"answers"`
	IdempotencyKey string             `json:"idempotencyKey,omitempty"`
}

// RetryMistakesRequest is the request body for a mistake replay
type RetryMistakesRequest struct {
	Answers        []AnswerSubmission `json:"answers"`
	IdempotencyKey string             `json:"idempotencyKey,omitempty"`
}

// SubmitLessonResponse is the outcome of a lesson submission or replay
type SubmitLessonResponse struct {
	TotalExercises     int            `json:"totalExercises"`
	CorrectAnswers     int            `json:"correctAnswers"`
	IsPassed           bool           `json:"isPassed"`
	MistakeExerciseIDs []int          `json:"mistakeExerciseIds"`
	Answers            []AnswerDetail `json:"answers"`
}
