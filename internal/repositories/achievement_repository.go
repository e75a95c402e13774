package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lingopath/backend/internal/models"
)

type achievementRepository struct {
	db *sql.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *sql.DB) *achievementRepository {
	return &achievementRepository{db: db}
}

// GetOrCreateByTitle retrieves a catalog entry by title, creating it with
// the given description when missing
func (r *achievementRepository) GetOrCreateByTitle(ctx context.Context, title, description string) (*models.Achievement, error) {
	query := `
		SELECT id, title, description
		FROM achievements
		WHERE title = ?
		LIMIT 1
	`

	var achievement models.Achievement
	err := executor(ctx, r.db).QueryRowContext(ctx, query, title).Scan(
		&achievement.ID,
		&achievement.Title,
		&achievement.Description,
	)
	if err == nil {
		return &achievement, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}

	insert := `INSERT INTO achievements (title, description) VALUES (?, ?)`
	res, err := executor(ctx, r.db).ExecContext(ctx, insert, title, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &models.Achievement{ID: int(id), Title: title, Description: description}, nil
}

// HasGrant checks whether the user already holds an achievement
func (r *achievementRepository) HasGrant(ctx context.Context, userID, achievementID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_achievements WHERE user_id = ? AND achievement_id = ?)`

	var exists bool
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID, achievementID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement grant: %w", err)
	}

	return exists, nil
}

// Grant records an achievement for the user. The unique key on
// (user_id, achievement_id) plus INSERT IGNORE keeps grants append-only
// and at-most-once under concurrent submissions.
func (r *achievementRepository) Grant(ctx context.Context, userID, achievementID int, grantedAt time.Time) error {
	query := `
		INSERT IGNORE INTO user_achievements (user_id, achievement_id, granted_at)
		VALUES (?, ?, ?)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query, userID, achievementID, grantedAt)
	if err != nil {
		return fmt.Errorf("failed to grant achievement: %w", err)
	}

	return nil
}

// GetByUserID retrieves the user's granted achievements with catalog data
func (r *achievementRepository) GetByUserID(ctx context.Context, userID int) ([]models.UserAchievementResponse, error) {
	query := `
		SELECT a.title, a.description, ua.granted_at
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = ?
		ORDER BY ua.granted_at, ua.id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user achievements: %w", err)
	}
	defer rows.Close()

	var achievements []models.UserAchievementResponse
	for rows.Next() {
		var item models.UserAchievementResponse
		if err := rows.Scan(&item.Title, &item.Description, &item.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user achievement: %w", err)
		}
		achievements = append(achievements, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user achievements: %w", err)
	}

	return achievements, nil
}
