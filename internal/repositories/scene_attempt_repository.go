package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lingopath/backend/internal/models"
)

type sceneAttemptRepository struct {
	db *sql.DB
}

// NewSceneAttemptRepository creates a new scene attempt repository
func NewSceneAttemptRepository(db *sql.DB) *sceneAttemptRepository {
	return &sceneAttemptRepository{db: db}
}

const sceneAttemptColumns = `id, user_id, scene_id, is_completed, completed_at,
	score, total_questions, details, submit_idempotency_key, mistakes_idempotency_key`

// GetByUserAndScene retrieves the single attempt row for a scene.
// Returns nil without error when the user never submitted the scene.
func (r *sceneAttemptRepository) GetByUserAndScene(ctx context.Context, userID, sceneID int) (*models.SceneAttempt, error) {
	query := `
		SELECT ` + sceneAttemptColumns + `
		FROM scene_attempts
		WHERE user_id = ? AND scene_id = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, sceneID)
}

// GetBySubmitKey retrieves an attempt by the submission idempotency key.
// Returns nil without error when no attempt carries the key.
func (r *sceneAttemptRepository) GetBySubmitKey(ctx context.Context, userID int, key string) (*models.SceneAttempt, error) {
	query := `
		SELECT ` + sceneAttemptColumns + `
		FROM scene_attempts
		WHERE user_id = ? AND submit_idempotency_key = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, key)
}

// GetByMistakesKey retrieves an attempt by the replay idempotency key.
// Returns nil without error when no attempt carries the key.
func (r *sceneAttemptRepository) GetByMistakesKey(ctx context.Context, userID int, key string) (*models.SceneAttempt, error) {
	query := `
		SELECT ` + sceneAttemptColumns + `
		FROM scene_attempts
		WHERE user_id = ? AND mistakes_idempotency_key = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, key)
}

func (r *sceneAttemptRepository) getOne(ctx context.Context, query string, args ...any) (*models.SceneAttempt, error) {
	var attempt models.SceneAttempt
	err := executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&attempt.ID,
		&attempt.UserID,
		&attempt.SceneID,
		&attempt.IsCompleted,
		&attempt.CompletedAt,
		&attempt.Score,
		&attempt.TotalQuestions,
		&attempt.DetailsJSON,
		&attempt.SubmitIdempotencyKey,
		&attempt.MistakesIdempotencyKey,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scene attempt: %w", err)
	}

	return &attempt, nil
}

// Upsert inserts the attempt row or rewrites the existing one for the same
// (user, scene) pair
func (r *sceneAttemptRepository) Upsert(ctx context.Context, attempt *models.SceneAttempt) error {
	query := `
		INSERT INTO scene_attempts
			(user_id, scene_id, is_completed, completed_at, score, total_questions,
			details, submit_idempotency_key, mistakes_idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			is_completed = VALUES(is_completed),
			completed_at = VALUES(completed_at),
			score = VALUES(score),
			total_questions = VALUES(total_questions),
			details = VALUES(details),
			submit_idempotency_key = VALUES(submit_idempotency_key),
			mistakes_idempotency_key = VALUES(mistakes_idempotency_key)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		attempt.UserID,
		attempt.SceneID,
		attempt.IsCompleted,
		attempt.CompletedAt,
		attempt.Score,
		attempt.TotalQuestions,
		attempt.DetailsJSON,
		attempt.SubmitIdempotencyKey,
		attempt.MistakesIdempotencyKey,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scene attempt: %w", err)
	}

	return nil
}

// GetCompletedSceneIDsByUser retrieves the set of scene IDs the user has
// completed
func (r *sceneAttemptRepository) GetCompletedSceneIDsByUser(ctx context.Context, userID int) (map[int]bool, error) {
	query := `
		SELECT scene_id
		FROM scene_attempts
		WHERE user_id = ? AND is_completed = 1
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed scenes: %w", err)
	}
	defer rows.Close()

	completed := make(map[int]bool)
	for rows.Next() {
		var sceneID int
		if err := rows.Scan(&sceneID); err != nil {
			return nil, fmt.Errorf("failed to scan scene id: %w", err)
		}
		completed[sceneID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completed scenes: %w", err)
	}

	return completed, nil
}

// GetCompletionTimesByUser retrieves the completion instants of the user's
// completed scenes
func (r *sceneAttemptRepository) GetCompletionTimesByUser(ctx context.Context, userID int) ([]time.Time, error) {
	query := `
		SELECT completed_at
		FROM scene_attempts
		WHERE user_id = ? AND is_completed = 1 AND completed_at IS NOT NULL
		ORDER BY completed_at
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene completion times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("failed to scan completion time: %w", err)
		}
		times = append(times, at)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completion times: %w", err)
	}

	return times, nil
}

// CountCompletedByUser counts the user's distinct completed scenes
func (r *sceneAttemptRepository) CountCompletedByUser(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM scene_attempts
		WHERE user_id = ? AND is_completed = 1
	`

	var count int
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed scenes: %w", err)
	}

	return count, nil
}
