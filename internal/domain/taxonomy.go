package domain

import "github.com/google/uuid"

// Category is a quiz topic grouping. Only active categories participate in
// builder defaulting and orchestrated prompt weaving.
type Category struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Active   bool      `json:"active"`
	Position int       `json:"position"`
}

// Difficulty is a quiz difficulty tier, ordered by Level ascending.
type Difficulty struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Level  int       `json:"level"`
	Active bool      `json:"active"`
}

// Language is one configured content language. ID is the numeric language
// identifier used as the key of every translations map; the first language
// by Position is the system default.
type Language struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}
