package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// TaxonomyStore implements the store.TaxonomyStore interface using
// PostgreSQL.
type TaxonomyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaxonomyStore creates a new PostgreSQL implementation of the
// TaxonomyStore interface. If logger is nil, a default logger is used.
func NewTaxonomyStore(db store.DBTX, log *slog.Logger) *TaxonomyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &TaxonomyStore{
		db:     db,
		logger: log.With(slog.String("component", "taxonomy_store")),
	}
}

// Ensure TaxonomyStore implements store.TaxonomyStore.
var _ store.TaxonomyStore = (*TaxonomyStore)(nil)

// ListActiveCategories implements store.TaxonomyStore.ListActiveCategories.
func (s *TaxonomyStore) ListActiveCategories(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name, active, position
		FROM categories
		WHERE active
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

// ListActiveDifficulties implements store.TaxonomyStore.ListActiveDifficulties.
func (s *TaxonomyStore) ListActiveDifficulties(ctx context.Context) ([]*domain.Difficulty, error) {
	query := `
		SELECT id, name, level, active
		FROM difficulties
		WHERE active
		ORDER BY level ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var difficulties []*domain.Difficulty
	for rows.Next() {
		var d domain.Difficulty
		if err := rows.Scan(&d.ID, &d.Name, &d.Level, &d.Active); err != nil {
			return nil, fmt.Errorf("failed to scan difficulty row: %w", err)
		}
		difficulties = append(difficulties, &d)
	}

	return difficulties, rows.Err()
}

// ListLanguages implements store.TaxonomyStore.ListLanguages.
func (s *TaxonomyStore) ListLanguages(ctx context.Context) ([]*domain.Language, error) {
	query := `
		SELECT id, name, position
		FROM languages
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var languages []*domain.Language
	for rows.Next() {
		var l domain.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.Position); err != nil {
			return nil, fmt.Errorf("failed to scan language row: %w", err)
		}
		languages = append(languages, &l)
	}

	return languages, rows.Err()
}
