package models

import "time"

// VocabularyItem is a global dictionary entry, deduplicated by
// (word, translation)
type VocabularyItem struct {
	ID          int    `json:"id"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Example     string `json:"example,omitempty"`
}

// UserVocabulary links a user to a vocabulary item and carries its
// review schedule
type UserVocabulary struct {
	ID                   int        `json:"id"`
	UserID               int        `json:"userId"`
	VocabularyItemID     int        `json:"vocabularyItemId"`
	AddedAt              time.Time  `json:"addedAt"`
	LastReviewedAt       *time.Time `json:"lastReviewedAt,omitempty"`
	NextReviewAt         time.Time  `json:"nextReviewAt"`
	ReviewCount          int        `json:"reviewCount"`
	ReviewIdempotencyKey *string    `json:"-"`
}

// AddWordRequest is the request body for saving a word
type AddWordRequest struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Example     string `json:"example,omitempty"`
}

// ReviewWordRequest is the request body for reviewing a saved word
type ReviewWordRequest struct {
	Correct        bool   `json:"correct"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// DueWordResponse is one due vocabulary item with its dictionary entry
type DueWordResponse struct {
	UserVocabularyID int       `json:"userVocabularyId"`
	Word             string    `json:"word"`
	Translation      string    `json:"translation"`
	Example          string    `json:"example,omitempty"`
	NextReviewAt     time.Time `json:"nextReviewAt"`
	ReviewCount      int       `json:"reviewCount"`
}

// ReviewWordResponse reports the updated schedule after a review
type ReviewWordResponse struct {
	UserVocabularyID int       `json:"userVocabularyId"`
	ReviewCount      int       `json:"reviewCount"`
	NextReviewAt     time.Time `json:"nextReviewAt"`
}
