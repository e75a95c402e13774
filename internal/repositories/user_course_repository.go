package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/models"
)

type userCourseRepository struct {
	db *sql.DB
}

// NewUserCourseRepository creates a new user course repository
func NewUserCourseRepository(db *sql.DB) *userCourseRepository {
	return &userCourseRepository{db: db}
}

const userCourseColumns = `id, user_id, course_id, is_active, started_at,
	last_lesson_id, last_opened_at, is_completed, completed_at`

// GetActiveByUser retrieves the user's single active course row.
// Returns nil without error when no course is active.
func (r *userCourseRepository) GetActiveByUser(ctx context.Context, userID int) (*models.UserCourse, error) {
	query := `
		SELECT ` + userCourseColumns + `
		FROM user_courses
		WHERE user_id = ? AND is_active = 1
		LIMIT 1
	`
	return r.getOne(ctx, query, userID)
}

// GetByUserAndCourse retrieves the row for one course.
// Returns nil without error when the user never started the course.
func (r *userCourseRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.UserCourse, error) {
	query := `
		SELECT ` + userCourseColumns + `
		FROM user_courses
		WHERE user_id = ? AND course_id = ?
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, courseID)
}

func (r *userCourseRepository) getOne(ctx context.Context, query string, args ...any) (*models.UserCourse, error) {
	var uc models.UserCourse
	err := executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&uc.ID,
		&uc.UserID,
		&uc.CourseID,
		&uc.IsActive,
		&uc.StartedAt,
		&uc.LastLessonID,
		&uc.LastOpenedAt,
		&uc.IsCompleted,
		&uc.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user course: %w", err)
	}

	return &uc, nil
}

// Create inserts a new user course row
func (r *userCourseRepository) Create(ctx context.Context, uc *models.UserCourse) error {
	query := `
		INSERT INTO user_courses
			(user_id, course_id, is_active, started_at, last_lesson_id,
			last_opened_at, is_completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		uc.UserID,
		uc.CourseID,
		uc.IsActive,
		uc.StartedAt,
		uc.LastLessonID,
		uc.LastOpenedAt,
		uc.IsCompleted,
		uc.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user course: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	uc.ID = int(id)
	return nil
}

// Update rewrites the mutable fields of a user course row
func (r *userCourseRepository) Update(ctx context.Context, uc *models.UserCourse) error {
	query := `
		UPDATE user_courses
		SET is_active = ?, last_lesson_id = ?, last_opened_at = ?,
			is_completed = ?, completed_at = ?
		WHERE id = ?
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		uc.IsActive,
		uc.LastLessonID,
		uc.LastOpenedAt,
		uc.IsCompleted,
		uc.CompletedAt,
		uc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user course: %w", err)
	}

	return nil
}

// DeactivateAllByUser clears the active flag on every course of the user.
// Keeps the one-active-course invariant before activating another.
func (r *userCourseRepository) DeactivateAllByUser(ctx context.Context, userID int) error {
	query := `UPDATE user_courses SET is_active = 0 WHERE user_id = ?`

	_, err := executor(ctx, r.db).ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user courses: %w", err)
	}

	return nil
}
