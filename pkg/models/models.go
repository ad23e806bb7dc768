package models

import (
	"fmt"
	"strings"
	"time"
)

// Category is the kind of a dish
type Category string

const (
	// CategorySavory is a savory dish
	CategorySavory Category = "savory"
	// CategorySweet is a sweet dish
	CategorySweet Category = "sweet"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	return c == CategorySavory || c == CategorySweet
}

// ParseCategory parses a dish category. Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown dish category %q", s)
	}
	return c, nil
}

// Ingredient represents a single ingredient of the catalog.
// Two ingredients with the same Name are the same ingredient regardless of ID.
type Ingredient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Dish represents a dish of the catalog
type Dish struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Category    Category     `json:"category"`
	Ingredients []Ingredient `json:"ingredients"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Selection is the set of ingredients a session reports as available
type Selection struct {
	SessionID   string       `json:"session_id"`
	Ingredients []Ingredient `json:"ingredients"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ChecklistEntry marks whether a catalog ingredient is part of a dish
type ChecklistEntry struct {
	Ingredient Ingredient `json:"ingredient"`
	Present    bool       `json:"present"`
}

// Checklist is an ordered mapping from every known ingredient to its
// presence flag. Entries are sorted by ingredient name.
type Checklist []ChecklistEntry

// Present reports the flag stored for the ingredient named name
func (c Checklist) Present(name string) bool {
	for _, e := range c {
		if e.Ingredient.Name == name {
			return e.Present
		}
	}
	return false
}
