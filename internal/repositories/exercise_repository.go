package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/models"
)

type exerciseRepository struct {
	db *sql.DB
}

// NewExerciseRepository creates a new exercise repository
func NewExerciseRepository(db *sql.DB) *exerciseRepository {
	return &exerciseRepository{db: db}
}

// GetByLessonID retrieves the exercises of a lesson in display order.
// Exercises with order <= 0 sort last; ties break by id.
func (r *exerciseRepository) GetByLessonID(ctx context.Context, lessonID int) ([]models.Exercise, error) {
	query := `
		SELECT id, lesson_id, type, question, data, correct_answer, ` + "`order`" + `
		FROM exercises
		WHERE lesson_id = ?
		ORDER BY CASE WHEN ` + "`order`" + ` > 0 THEN 0 ELSE 1 END, ` + "`order`" + `, id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		var exercise models.Exercise
		if err := rows.Scan(
			&exercise.ID,
			&exercise.LessonID,
			&exercise.Type,
			&exercise.Question,
			&exercise.Data,
			&exercise.CorrectAnswer,
			&exercise.Order,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exercises: %w", err)
	}

	return exercises, nil
}
