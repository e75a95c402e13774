package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/models"
)

type lessonResultRepository struct {
	db *sql.DB
}

// NewLessonResultRepository creates a new lesson result repository
func NewLessonResultRepository(db *sql.DB) *lessonResultRepository {
	return &lessonResultRepository{db: db}
}

// GetByIdempotencyKey retrieves a result by the submission idempotency key.
// Returns nil without error when no result carries the key.
func (r *lessonResultRepository) GetByIdempotencyKey(ctx context.Context, userID int, key string) (*models.LessonResult, error) {
	query := `
		SELECT id, user_id, lesson_id, score, total_questions, completed_at,
			details, idempotency_key, mistakes_idempotency_key
		FROM lesson_results
		WHERE user_id = ? AND idempotency_key = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, key)
}

// GetByMistakesKey retrieves a result by the mistake-replay idempotency key.
// Returns nil without error when no result carries the key.
func (r *lessonResultRepository) GetByMistakesKey(ctx context.Context, userID int, key string) (*models.LessonResult, error) {
	query := `
		SELECT id, user_id, lesson_id, score, total_questions, completed_at,
			details, idempotency_key, mistakes_idempotency_key
		FROM lesson_results
		WHERE user_id = ? AND mistakes_idempotency_key = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, key)
}

// GetLatestByUserAndLesson retrieves the most recent attempt for a lesson.
// Returns nil without error when the user has no attempts.
func (r *lessonResultRepository) GetLatestByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.LessonResult, error) {
	query := `
		SELECT id, user_id, lesson_id, score, total_questions, completed_at,
			details, idempotency_key, mistakes_idempotency_key
		FROM lesson_results
		WHERE user_id = ? AND lesson_id = ?
		ORDER BY completed_at DESC, id DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, lessonID)
}

func (r *lessonResultRepository) getOne(ctx context.Context, query string, args ...any) (*models.LessonResult, error) {
	var result models.LessonResult
	err := executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&result.ID,
		&result.UserID,
		&result.LessonID,
		&result.Score,
		&result.TotalQuestions,
		&result.CompletedAt,
		&result.DetailsJSON,
		&result.IdempotencyKey,
		&result.MistakesIdempotencyKey,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson result: %w", err)
	}

	return &result, nil
}

// Create inserts a new lesson result. The unique key on
// (user_id, idempotency_key) rejects duplicate concurrent submissions.
func (r *lessonResultRepository) Create(ctx context.Context, result *models.LessonResult) error {
	query := `
		INSERT INTO lesson_results
			(user_id, lesson_id, score, total_questions, completed_at, details,
			idempotency_key, mistakes_idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		result.UserID,
		result.LessonID,
		result.Score,
		result.TotalQuestions,
		result.CompletedAt,
		result.DetailsJSON,
		result.IdempotencyKey,
		result.MistakesIdempotencyKey,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	result.ID = int(id)
	return nil
}

// UpdateDetails rewrites the stored detail, aggregate score and replay key
// of an attempt after a mistake replay
func (r *lessonResultRepository) UpdateDetails(ctx context.Context, result *models.LessonResult) error {
	query := `
		UPDATE lesson_results
		SET score = ?, details = ?, mistakes_idempotency_key = ?
		WHERE id = ?
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		result.Score,
		result.DetailsJSON,
		result.MistakesIdempotencyKey,
		result.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson result: %w", err)
	}

	return nil
}

// GetAllByUser retrieves every attempt of a user, oldest first.
// Used by the streak aggregator, which recomputes from full history.
func (r *lessonResultRepository) GetAllByUser(ctx context.Context, userID int) ([]models.LessonResult, error) {
	query := `
		SELECT id, user_id, lesson_id, score, total_questions, completed_at,
			details, idempotency_key, mistakes_idempotency_key
		FROM lesson_results
		WHERE user_id = ?
		ORDER BY completed_at, id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson results: %w", err)
	}
	defer rows.Close()

	var results []models.LessonResult
	for rows.Next() {
		var result models.LessonResult
		if err := rows.Scan(
			&result.ID,
			&result.UserID,
			&result.LessonID,
			&result.Score,
			&result.TotalQuestions,
			&result.CompletedAt,
			&result.DetailsJSON,
			&result.IdempotencyKey,
			&result.MistakesIdempotencyKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lesson results: %w", err)
	}

	return results, nil
}
