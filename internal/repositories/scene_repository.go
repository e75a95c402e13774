package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/apperrors"
	"github.com/lingopath/backend/internal/models"
)

type sceneRepository struct {
	db *sql.DB
}

// NewSceneRepository creates a new scene repository
func NewSceneRepository(db *sql.DB) *sceneRepository {
	return &sceneRepository{db: db}
}

// GetByID retrieves a scene by ID
func (r *sceneRepository) GetByID(ctx context.Context, id int) (*models.Scene, error) {
	query := `
		SELECT id, course_id, ` + "`order`" + `, title, type,
			COALESCE(image_url, ''), COALESCE(audio_url, '')
		FROM scenes
		WHERE id = ?
		LIMIT 1
	`

	var scene models.Scene
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&scene.ID,
		&scene.CourseID,
		&scene.Order,
		&scene.Title,
		&scene.Type,
		&scene.ImageURL,
		&scene.AudioURL,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundf("scene not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scene by id: %w", err)
	}

	return &scene, nil
}

// GetByCourseIDRanked retrieves the scenes of a course in unlock rank:
// positive order values ascending first, then unordered scenes by id.
// The 1-based index in this slice is the scene's position.
func (r *sceneRepository) GetByCourseIDRanked(ctx context.Context, courseID int) ([]models.Scene, error) {
	query := `
		SELECT id, course_id, ` + "`order`" + `, title, type,
			COALESCE(image_url, ''), COALESCE(audio_url, '')
		FROM scenes
		WHERE course_id = ?
		ORDER BY CASE WHEN ` + "`order`" + ` > 0 THEN 0 ELSE 1 END, ` + "`order`" + `, id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scenes by course: %w", err)
	}
	defer rows.Close()

	var scenes []models.Scene
	for rows.Next() {
		var scene models.Scene
		if err := rows.Scan(
			&scene.ID,
			&scene.CourseID,
			&scene.Order,
			&scene.Title,
			&scene.Type,
			&scene.ImageURL,
			&scene.AudioURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenes: %w", err)
	}

	return scenes, nil
}

// GetStepsBySceneID retrieves the steps of a scene in display order
func (r *sceneRepository) GetStepsBySceneID(ctx context.Context, sceneID int) ([]models.SceneStep, error) {
	query := `
		SELECT id, scene_id, ` + "`order`" + `, COALESCE(speaker, ''), text,
			COALESCE(image_url, ''), COALESCE(audio_url, ''), step_type,
			COALESCE(choices, '')
		FROM scene_steps
		WHERE scene_id = ?
		ORDER BY CASE WHEN ` + "`order`" + ` > 0 THEN 0 ELSE 1 END, ` + "`order`" + `, id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scene steps: %w", err)
	}
	defer rows.Close()

	var steps []models.SceneStep
	for rows.Next() {
		var step models.SceneStep
		if err := rows.Scan(
			&step.ID,
			&step.SceneID,
			&step.Order,
			&step.Speaker,
			&step.Text,
			&step.ImageURL,
			&step.AudioURL,
			&step.StepType,
			&step.ChoicesJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scene step: %w", err)
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scene steps: %w", err)
	}

	return steps, nil
}
