package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
	"go.uber.org/zap"
)

// Review intervals of the two-bucket scheduler
const (
	reviewIntervalCorrect   = 24 * time.Hour
	reviewIntervalIncorrect = 12 * time.Hour
	defaultDueLimit         = 50
)

// VocabularyRepository defines methods for the global dictionary
type VocabularyRepository interface {
	// GetByWordAndTranslation retrieves an entry, nil when absent
	GetByWordAndTranslation(ctx context.Context, word, translation string) (*models.VocabularyItem, error)
	// Create inserts a new dictionary entry
	Create(ctx context.Context, item *models.VocabularyItem) error
}

// UserVocabularyRepository defines methods for per-user saved words
type UserVocabularyRepository interface {
	// GetByID retrieves one of the user's saved words, nil when absent
	GetByID(ctx context.Context, userID, id int) (*models.UserVocabulary, error)
	// GetByUserAndItem retrieves the link to a dictionary entry, nil when absent
	GetByUserAndItem(ctx context.Context, userID, itemID int) (*models.UserVocabulary, error)
	// GetByReviewKey retrieves the word last reviewed under a key, nil when absent
	GetByReviewKey(ctx context.Context, userID int, key string) (*models.UserVocabulary, error)
	// Create inserts a new saved word
	Create(ctx context.Context, uv *models.UserVocabulary) error
	// Update rewrites a saved word's schedule
	Update(ctx context.Context, uv *models.UserVocabulary) error
	// GetDue retrieves due words ordered by next review time
	GetDue(ctx context.Context, userID int, now time.Time, limit int) ([]models.DueWordResponse, error)
}

// vocabularyService owns the saved-word list and its review schedule
type vocabularyService struct {
	vocabularyRepo VocabularyRepository
	userVocabRepo  UserVocabularyRepository
	transactor     Transactor
	clock          Clock
	logger         *zap.Logger
}

// NewVocabularyService creates a new vocabulary service
func NewVocabularyService(
	vocabularyRepo VocabularyRepository,
	userVocabRepo UserVocabularyRepository,
	transactor Transactor,
	clock Clock,
	logger *zap.Logger,
) *vocabularyService {
	return &vocabularyService{
		vocabularyRepo: vocabularyRepo,
		userVocabRepo:  userVocabRepo,
		transactor:     transactor,
		clock:          clock,
		logger:         logger,
	}
}

// AddWord saves a word for the user, deduplicating the dictionary entry
// by (word, translation) and the user link by entry. The new word is due
// immediately.
func (s *vocabularyService) AddWord(ctx context.Context, userID int, req models.AddWordRequest) (*models.UserVocabulary, error) {
	word := strings.TrimSpace(req.Word)
	translation := strings.TrimSpace(req.Translation)
	if word == "" || translation == "" {
		return nil, apperrors.Validationf("word and translation must not be empty")
	}

	var saved *models.UserVocabulary
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.vocabularyRepo.GetByWordAndTranslation(ctx, word, translation)
		if err != nil {
			return err
		}
		if item == nil {
			item = &models.VocabularyItem{
				Word:        word,
				Translation: translation,
				Example:     strings.TrimSpace(req.Example),
			}
			if err := s.vocabularyRepo.Create(ctx, item); err != nil {
				return err
			}
		}

		existing, err := s.userVocabRepo.GetByUserAndItem(ctx, userID, item.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			saved = existing
			return nil
		}

		now := s.clock.UtcNow()
		saved = &models.UserVocabulary{
			UserID:           userID,
			VocabularyItemID: item.ID,
			AddedAt:          now,
			NextReviewAt:     now,
		}
		return s.userVocabRepo.Create(ctx, saved)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add word: %w", err)
	}

	return saved, nil
}

// GetDueWords lists words whose next review time has arrived
func (s *vocabularyService) GetDueWords(ctx context.Context, userID int) ([]models.DueWordResponse, error) {
	due, err := s.userVocabRepo.GetDue(ctx, userID, s.clock.UtcNow(), defaultDueLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due words: %w", err)
	}
	return due, nil
}

// ReviewWord applies one review outcome: a correct answer extends the
// interval by a day, a wrong one resets the count and retries in twelve
// hours. Reviewing before the due time is accepted. Repeating an
// idempotency key replays the stored schedule.
func (s *vocabularyService) ReviewWord(ctx context.Context, userID, userVocabularyID int, req models.ReviewWordRequest) (*models.ReviewWordResponse, error) {
	if userVocabularyID <= 0 {
		return nil, apperrors.Validationf("word id must be positive")
	}

	if req.IdempotencyKey != "" {
		stored, err := s.userVocabRepo.GetByReviewKey(ctx, userID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if stored != nil {
			if stored.ID != userVocabularyID {
				return nil, apperrors.Validationf("idempotency key was used for a different word")
			}
			return reviewToResponse(stored), nil
		}
	}

	uv, err := s.userVocabRepo.GetByID(ctx, userID, userVocabularyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get saved word: %w", err)
	}
	if uv == nil {
		return nil, apperrors.NotFoundf("saved word %d not found", userVocabularyID)
	}

	now := s.clock.UtcNow()
	if req.Correct {
		uv.ReviewCount++
		uv.NextReviewAt = now.Add(reviewIntervalCorrect)
	} else {
		uv.ReviewCount = 0
		uv.NextReviewAt = now.Add(reviewIntervalIncorrect)
	}
	uv.LastReviewedAt = &now
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		uv.ReviewIdempotencyKey = &key
	}

	if err := s.userVocabRepo.Update(ctx, uv); err != nil {
		return nil, fmt.Errorf("failed to update saved word: %w", err)
	}

	s.logger.Info("word reviewed",
		zap.Int("user_id", userID),
		zap.Int("user_vocabulary_id", userVocabularyID),
		zap.Bool("correct", req.Correct),
	)

	return reviewToResponse(uv), nil
}

func reviewToResponse(uv *models.UserVocabulary) *models.ReviewWordResponse {
	return &models.ReviewWordResponse{
		UserVocabularyID: uv.ID,
		ReviewCount:      uv.ReviewCount,
		NextReviewAt:     uv.NextReviewAt,
	}
}
