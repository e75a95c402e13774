package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/models"
)

type userLessonProgressRepository struct {
	db *sql.DB
}

// NewUserLessonProgressRepository creates a new progress repository
func NewUserLessonProgressRepository(db *sql.DB) *userLessonProgressRepository {
	return &userLessonProgressRepository{db: db}
}

// GetByUserAndLesson retrieves one ledger row.
// Returns nil without error when the user has not reached the lesson yet.
func (r *userLessonProgressRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.UserLessonProgress, error) {
	query := `
		SELECT id, user_id, lesson_id, is_unlocked, is_completed, best_score, last_attempt_at
		FROM user_lesson_progress
		WHERE user_id = ? AND lesson_id = ?
		LIMIT 1
	`

	var progress models.UserLessonProgress
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID, lessonID).Scan(
		&progress.ID,
		&progress.UserID,
		&progress.LessonID,
		&progress.IsUnlocked,
		&progress.IsCompleted,
		&progress.BestScore,
		&progress.LastAttemptAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	return &progress, nil
}

// GetByUserAndCourse retrieves the user's ledger rows for every lesson of a
// course, keyed by lesson ID
func (r *userLessonProgressRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (map[int]*models.UserLessonProgress, error) {
	query := `
		SELECT ulp.id, ulp.user_id, ulp.lesson_id, ulp.is_unlocked, ulp.is_completed,
			ulp.best_score, ulp.last_attempt_at
		FROM user_lesson_progress ulp
		JOIN lessons l ON l.id = ulp.lesson_id
		JOIN topics t ON t.id = l.topic_id
		WHERE ulp.user_id = ? AND t.course_id = ?
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course progress rows: %w", err)
	}
	defer rows.Close()

	progressByLesson := make(map[int]*models.UserLessonProgress)
	for rows.Next() {
		var progress models.UserLessonProgress
		if err := rows.Scan(
			&progress.ID,
			&progress.UserID,
			&progress.LessonID,
			&progress.IsUnlocked,
			&progress.IsCompleted,
			&progress.BestScore,
			&progress.LastAttemptAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		progressByLesson[progress.LessonID] = &progress
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progress rows: %w", err)
	}

	return progressByLesson, nil
}

// Create inserts a new ledger row
func (r *userLessonProgressRepository) Create(ctx context.Context, progress *models.UserLessonProgress) error {
	query := `
		INSERT INTO user_lesson_progress
			(user_id, lesson_id, is_unlocked, is_completed, best_score, last_attempt_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		progress.UserID,
		progress.LessonID,
		progress.IsUnlocked,
		progress.IsCompleted,
		progress.BestScore,
		progress.LastAttemptAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create progress row: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	progress.ID = int(id)
	return nil
}

// Update rewrites the mutable fields of a ledger row
func (r *userLessonProgressRepository) Update(ctx context.Context, progress *models.UserLessonProgress) error {
	query := `
		UPDATE user_lesson_progress
		SET is_unlocked = ?, is_completed = ?, best_score = ?, last_attempt_at = ?
		WHERE id = ?
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		progress.IsUnlocked,
		progress.IsCompleted,
		progress.BestScore,
		progress.LastAttemptAt,
		progress.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress row: %w", err)
	}

	return nil
}

// CountCompletedByUser counts the user's distinct passed lessons overall
func (r *userLessonProgressRepository) CountCompletedByUser(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_lesson_progress
		WHERE user_id = ? AND is_completed = 1
	`

	var count int
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	return count, nil
}

// CountCompletedByUserAndCourse counts the user's distinct passed lessons
// within one course
func (r *userLessonProgressRepository) CountCompletedByUserAndCourse(ctx context.Context, userID, courseID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_lesson_progress ulp
		JOIN lessons l ON l.id = ulp.lesson_id
		JOIN topics t ON t.id = l.topic_id
		WHERE ulp.user_id = ? AND t.course_id = ? AND ulp.is_completed = 1
	`

	var count int
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID, courseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons in course: %w", err)
	}

	return count, nil
}

// SumBestScores sums the best scores of the user's completed lessons
func (r *userLessonProgressRepository) SumBestScores(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(best_score), 0)
		FROM user_lesson_progress
		WHERE user_id = ? AND is_completed = 1
	`

	var sum int
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum best scores: %w", err)
	}

	return sum, nil
}
