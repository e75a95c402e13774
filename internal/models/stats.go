package models

import "time"

// UserStatsResponse reports streak and cumulative score, recomputed from
// history on every read
type UserStatsResponse struct {
	CurrentStreak  int        `json:"currentStreak"`
	MaxStreak      int        `json:"maxStreak"`
	TotalScore     int        `json:"totalScore"`
	TodayScore     int        `json:"todayScore"`
	DailyGoalScore int        `json:"dailyGoalScore"`
	LastStudyAt    *time.Time `json:"lastStudyAt,omitempty"`
}

// Next-activity types, in resolver priority order
const (
	ActivityVocabularyReview = "VocabularyReview"
	ActivityLesson           = "Lesson"
	ActivityScene            = "Scene"
	ActivityCourseComplete   = "CourseComplete"
)

// NextActivityResponse names the single suggested next activity
type NextActivityResponse struct {
	Type             string `json:"type"`
	CourseID         *int   `json:"courseId"`
	LessonID         *int   `json:"lessonId"`
	SceneID          *int   `json:"sceneId"`
	UserVocabularyID *int   `json:"userVocabularyId"`
}
