package models

import "time"

// UserLessonProgress is the per-user, per-lesson unlock ledger row.
// Rows are created lazily when the user reaches the lesson.
type UserLessonProgress struct {
	ID            int        `json:"id"`
	UserID        int        `json:"userId"`
	LessonID      int        `json:"lessonId"`
	IsUnlocked    bool       `json:"isUnlocked"`
	IsCompleted   bool       `json:"isCompleted"`
	BestScore     int        `json:"bestScore"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
}

// UserCourse tracks a user's participation in a course.
// At most one row per user is active across all courses.
type UserCourse struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	CourseID  int       `json:"courseId"`
	IsActive  bool      `json:"isActive"`
	StartedAt time.Time `json:"startedAt"`
	// LastLessonID is the resume pointer: the next actionable lesson,
	// nil once every lesson is completed
	LastLessonID *int       `json:"lastLessonId"`
	LastOpenedAt time.Time  `json:"lastOpenedAt"`
	IsCompleted  bool       `json:"isCompleted"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}
