package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
)

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{db: db}
}

// GetByID retrieves a published course by ID.
// Unpublished courses are reported as not found.
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, title, published
		FROM courses
		WHERE id = ? AND published = 1
		LIMIT 1
	`

	var course models.Course
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.Published,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return &course, nil
}

// GetAllPublishedWithUserState retrieves all published courses with the
// user's started/active/completed flags
func (r *courseRepository) GetAllPublishedWithUserState(ctx context.Context, userID int) ([]models.CourseListItem, error) {
	query := `
		SELECT
			c.id,
			c.title,
			CASE WHEN uc.id IS NOT NULL THEN 1 ELSE 0 END as started,
			COALESCE(uc.is_active, 0),
			COALESCE(uc.is_completed, 0)
		FROM courses c
		LEFT JOIN user_courses uc ON uc.course_id = c.id AND uc.user_id = ?
		WHERE c.published = 1
		ORDER BY c.id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	defer rows.Close()

	var courses []models.CourseListItem
	for rows.Next() {
		var item models.CourseListItem
		var started int
		if err := rows.Scan(&item.ID, &item.Title, &started, &item.IsActive, &item.IsCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		item.IsStarted = started == 1
		courses = append(courses, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return courses, nil
}

// GetTopicsByCourseID retrieves the topics of a course in display order.
// Topics with order <= 0 sort last; ties break by id.
func (r *courseRepository) GetTopicsByCourseID(ctx context.Context, courseID int) ([]models.Topic, error) {
	query := "SELECT id, course_id, title, `order` FROM topics WHERE course_id = ? " +
		"ORDER BY CASE WHEN `order` > 0 THEN 0 ELSE 1 END, `order`, id"

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var topic models.Topic
		if err := rows.Scan(&topic.ID, &topic.CourseID, &topic.Title, &topic.Order); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}

	return topics, nil
}
