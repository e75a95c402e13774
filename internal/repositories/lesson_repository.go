package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{db: db}
}

// GetByID retrieves a lesson by ID with its course resolved through the
// topic. Lessons of unpublished courses are reported as not found.
func (r *lessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	query := `
		SELECT l.id, l.topic_id, t.course_id, l.title, l.` + "`order`" + `
		FROM lessons l
		JOIN topics t ON t.id = l.topic_id
		JOIN courses c ON c.id = t.course_id
		WHERE l.id = ? AND c.published = 1
		LIMIT 1
	`

	var lesson models.Lesson
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&lesson.ID,
		&lesson.TopicID,
		&lesson.CourseID,
		&lesson.Title,
		&lesson.Order,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("lesson not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	return &lesson, nil
}

// GetOrderedByCourseID retrieves every lesson of a course in course-wide
// order: topic order first, then lesson order; order <= 0 sorts last and
// ties break by id, so the ordering is total.
func (r *lessonRepository) GetOrderedByCourseID(ctx context.Context, courseID int) ([]models.Lesson, error) {
	query := `
		SELECT l.id, l.topic_id, t.course_id, l.title, l.` + "`order`" + `
		FROM lessons l
		JOIN topics t ON t.id = l.topic_id
		WHERE t.course_id = ?
		ORDER BY
			CASE WHEN t.` + "`order`" + ` > 0 THEN 0 ELSE 1 END, t.` + "`order`" + `, t.id,
			CASE WHEN l.` + "`order`" + ` > 0 THEN 0 ELSE 1 END, l.` + "`order`" + `, l.id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons by course: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(&lesson.ID, &lesson.TopicID, &lesson.CourseID, &lesson.Title, &lesson.Order); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lessons: %w", err)
	}

	return lessons, nil
}
