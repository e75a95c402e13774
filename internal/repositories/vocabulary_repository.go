package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lingopath/backend/internal/models"
)

type vocabularyRepository struct {
	db *sql.DB
}

// NewVocabularyRepository creates a new vocabulary repository
func NewVocabularyRepository(db *sql.DB) *vocabularyRepository {
	return &vocabularyRepository{db: db}
}

// GetByWordAndTranslation retrieves a dictionary entry by its natural key.
// Returns nil without error when the pair is unknown.
func (r *vocabularyRepository) GetByWordAndTranslation(ctx context.Context, word, translation string) (*models.VocabularyItem, error) {
	query := `
		SELECT id, word, translation, COALESCE(example, '')
		FROM vocabulary_items
		WHERE word = ? AND translation = ?
		LIMIT 1
	`

	var item models.VocabularyItem
	err := executor(ctx, r.db).QueryRowContext(ctx, query, word, translation).Scan(
		&item.ID,
		&item.Word,
		&item.Translation,
		&item.Example,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary item: %w", err)
	}

	return &item, nil
}

// Create inserts a new dictionary entry. The unique key on
// (word, translation) rejects concurrent duplicates.
func (r *vocabularyRepository) Create(ctx context.Context, item *models.VocabularyItem) error {
	query := `
		INSERT INTO vocabulary_items (word, translation, example)
		VALUES (?, ?, ?)
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		item.Word,
		item.Translation,
		item.Example,
	)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = int(id)
	return nil
}
