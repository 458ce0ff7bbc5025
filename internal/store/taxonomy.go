package store

import (
	"context"

	"github.com/quizgen-io/quizgen-api/internal/domain"
)

// TaxonomyStore defines read access to the configured taxonomy: active
// categories and difficulties (builder defaulting, orchestrated prompt
// weaving) and the configured languages (translation coverage rules).
type TaxonomyStore interface {
	// ListActiveCategories retrieves active categories ordered by
	// position ascending. The first entry is the builder's default.
	ListActiveCategories(ctx context.Context) ([]*domain.Category, error)

	// ListActiveDifficulties retrieves active difficulties ordered by
	// level ascending. The first entry is the builder's default.
	ListActiveDifficulties(ctx context.Context) ([]*domain.Difficulty, error)

	// ListLanguages retrieves the configured languages ordered by
	// position ascending. The first entry is the system default.
	ListLanguages(ctx context.Context) ([]*domain.Language, error)
}
