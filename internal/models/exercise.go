package models

// ExerciseType identifies how an exercise is presented and graded
type ExerciseType string

// Supported exercise types
const (
	ExerciseTypeMultipleChoice ExerciseType = "multiple_choice"
	ExerciseTypeInput          ExerciseType = "input"
	ExerciseTypeMatch          ExerciseType = "match"
)

// Exercise represents a single graded item of a lesson
type Exercise struct {
	ID       int          `json:"id"`
	LessonID int          `json:"lessonId"`
	Type     ExerciseType `json:"type"`
	Question string       `json:"question"`
	// Data is a type-specific JSON payload: choice options for
	// multiple_choice, the shuffled pair columns for match, empty for input
	Data          string `json:"data,omitempty"`
	CorrectAnswer string `json:"-"`
	Order         int    `json:"order"`
}

// ExerciseResponse represents an exercise in user responses,
// with the correct answer stripped
type ExerciseResponse struct {
	ID       int          `json:"id"`
	Type     ExerciseType `json:"type"`
	Question string       `json:"question"`
	Data     string       `json:"data,omitempty"`
	Order    int          `json:"order"`
}

// MatchPair is one left/right pair of a match exercise answer
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}
