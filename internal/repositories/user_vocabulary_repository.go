package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lingopath/backend/internal/models"
)

type userVocabularyRepository struct {
	db *sql.DB
}

// NewUserVocabularyRepository creates a new user vocabulary repository
func NewUserVocabularyRepository(db *sql.DB) *userVocabularyRepository {
	return &userVocabularyRepository{db: db}
}

const userVocabularyColumns = `id, user_id, vocabulary_item_id, added_at,
	last_reviewed_at, next_review_at, review_count, review_idempotency_key`

// GetByID retrieves one saved word, scoped to the user.
// Returns nil without error when the row does not exist.
func (r *userVocabularyRepository) GetByID(ctx context.Context, userID, id int) (*models.UserVocabulary, error) {
	query := `
		SELECT ` + userVocabularyColumns + `
		FROM user_vocabulary
		WHERE id = ? AND user_id = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, id, userID)
}

// GetByUserAndItem retrieves the link row for a dictionary entry.
// Returns nil without error when the user has not saved the word.
func (r *userVocabularyRepository) GetByUserAndItem(ctx context.Context, userID, itemID int) (*models.UserVocabulary, error) {
	query := `
		SELECT ` + userVocabularyColumns + `
		FROM user_vocabulary
		WHERE user_id = ? AND vocabulary_item_id = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, itemID)
}

// GetByReviewKey retrieves a saved word by the review idempotency key.
// Returns nil without error when no row carries the key.
func (r *userVocabularyRepository) GetByReviewKey(ctx context.Context, userID int, key string) (*models.UserVocabulary, error) {
	query := `
		SELECT ` + userVocabularyColumns + `
		FROM user_vocabulary
		WHERE user_id = ? AND review_idempotency_key = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, key)
}

func (r *userVocabularyRepository) getOne(ctx context.Context, query string, args ...any) (*models.UserVocabulary, error) {
	var uv models.UserVocabulary
	err := executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&uv.ID,
		&uv.UserID,
		&uv.VocabularyItemID,
		&uv.AddedAt,
		&uv.LastReviewedAt,
		&uv.NextReviewAt,
		&uv.ReviewCount,
		&uv.ReviewIdempotencyKey,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user vocabulary: %w", err)
	}

	return &uv, nil
}

// Create inserts a new saved-word row
func (r *userVocabularyRepository) Create(ctx context.Context, uv *models.UserVocabulary) error {
	query := `
		INSERT INTO user_vocabulary
			(user_id, vocabulary_item_id, added_at, last_reviewed_at,
			next_review_at, review_count, review_idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		uv.UserID,
		uv.VocabularyItemID,
		uv.AddedAt,
		uv.LastReviewedAt,
		uv.NextReviewAt,
		uv.ReviewCount,
		uv.ReviewIdempotencyKey,
	)
	if err != nil {
		return fmt.Errorf("failed to create user vocabulary: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	uv.ID = int(id)
	return nil
}

// Update rewrites the review schedule of a saved word
func (r *userVocabularyRepository) Update(ctx context.Context, uv *models.UserVocabulary) error {
	query := `
		UPDATE user_vocabulary
		SET last_reviewed_at = ?, next_review_at = ?, review_count = ?,
			review_idempotency_key = ?
		WHERE id = ?
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		uv.LastReviewedAt,
		uv.NextReviewAt,
		uv.ReviewCount,
		uv.ReviewIdempotencyKey,
		uv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user vocabulary: %w", err)
	}

	return nil
}

// GetDue retrieves the user's due words joined with their dictionary
// entries, oldest due first; ties break by insertion order then id so the
// ordering is deterministic.
func (r *userVocabularyRepository) GetDue(ctx context.Context, userID int, now time.Time, limit int) ([]models.DueWordResponse, error) {
	query := `
		SELECT uv.id, vi.word, vi.translation, COALESCE(vi.example, ''),
			uv.next_review_at, uv.review_count
		FROM user_vocabulary uv
		JOIN vocabulary_items vi ON vi.id = uv.vocabulary_item_id
		WHERE uv.user_id = ? AND uv.next_review_at <= ?
		ORDER BY uv.next_review_at, uv.added_at, uv.id
		LIMIT ?
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due words: %w", err)
	}
	defer rows.Close()

	var due []models.DueWordResponse
	for rows.Next() {
		var word models.DueWordResponse
		if err := rows.Scan(
			&word.UserVocabularyID,
			&word.Word,
			&word.Translation,
			&word.Example,
			&word.NextReviewAt,
			&word.ReviewCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan due word: %w", err)
		}
		due = append(due, word)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due words: %w", err)
	}

	return due, nil
}
