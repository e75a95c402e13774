package models

import "time"

// Achievement is a catalog entry for a badge
type Achievement struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UserAchievement is an append-only grant record, unique per
// (userId, achievementId)
type UserAchievement struct {
	ID            int       `json:"id"`
	UserID        int       `json:"userId"`
	AchievementID int       `json:"achievementId"`
	GrantedAt     time.Time `json:"grantedAt"`
}

// UserAchievementResponse is a granted badge with its catalog data
type UserAchievementResponse struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	GrantedAt   time.Time `json:"grantedAt"`
}
