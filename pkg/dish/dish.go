// Package dish is the dish repository. Dishes are stored with references to
// ingredient ids and hydrated from the ingredient directory on read.
package dish

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/korjavin/whatthefridge/pkg/logger"
	"github.com/korjavin/whatthefridge/pkg/matching"
	"github.com/korjavin/whatthefridge/pkg/models"
	"github.com/korjavin/whatthefridge/pkg/storage"
)

var (
	// ErrNotFound is returned when no dish has the requested id
	ErrNotFound = errors.New("dish not found")
	// ErrInvalidCategory is returned for an unknown category or category filter
	ErrInvalidCategory = errors.New("invalid dish category")
	// ErrInvalidDish is returned when a dish fails validation
	ErrInvalidDish = errors.New("invalid dish")
)

const (
	dishPrefix   = "dish:"
	sequenceName = "dish"

	// FilterBoth matches dishes of every category
	FilterBoth = "both"
)

// Directory resolves ingredient references
type Directory interface {
	GetByID(id int64) (models.Ingredient, error)
	GetByName(name string) (models.Ingredient, error)
}

// record is the stored form of a dish
type record struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Category      models.Category `json:"category"`
	IngredientIDs []int64         `json:"ingredient_ids"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Service provides dish persistence and search
type Service struct {
	store     *storage.Store
	directory Directory
	logger    *logger.Logger
}

// New creates a new dish service
func New(store *storage.Store, directory Directory) *Service {
	return &Service{
		store:     store,
		directory: directory,
		logger:    logger.New("dish"),
	}
}

func dishKey(id int64) string {
	return fmt.Sprintf("%s%d", dishPrefix, id)
}

// ParseCategoryFilter parses a dishType filter. An empty result means every
// category matches.
func ParseCategoryFilter(s string) (models.Category, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, FilterBoth) {
		return "", nil
	}
	c, err := models.ParseCategory(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// GetByID returns the dish with the given id
func (s *Service) GetByID(id int64) (models.Dish, error) {
	var r record
	err := s.store.Get(dishKey(id), &r)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Dish{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return models.Dish{}, err
	}
	return s.hydrate(r), nil
}

// Ingredients returns the ingredients of the dish, sorted by name
func (s *Service) Ingredients(id int64) ([]models.Ingredient, error) {
	d, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	return matching.SortByName(d.Ingredients), nil
}

// List returns every dish ordered by id
func (s *Service) List() ([]models.Dish, error) {
	keys, err := s.store.List(dishPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}

	dishes := make([]models.Dish, 0, len(keys))
	for _, key := range keys {
		var r record
		if err := s.store.Get(key, &r); err != nil {
			s.logger.Error("Failed to get dish %s: %v", key, err)
			continue
		}
		dishes = append(dishes, s.hydrate(r))
	}

	sort.Slice(dishes, func(i, j int) bool { return dishes[i].ID < dishes[j].ID })
	return dishes, nil
}

// FindByIngredientNames returns the dishes containing at least one ingredient
// whose name is in names. A non-empty category restricts the result to that
// category.
func (s *Service) FindByIngredientNames(names []string, category models.Category) ([]models.Dish, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}

	matches := make([]models.Dish, 0)
	for _, d := range all {
		if category != "" && d.Category != category {
			continue
		}
		for _, i := range d.Ingredients {
			if wanted[matching.NameKey(i)] {
				matches = append(matches, d)
				break
			}
		}
	}

	s.logger.Debug("Found %d dishes for %d ingredient names (category=%q)", len(matches), len(names), category)
	return matches, nil
}

// Save creates the dish when its ID is zero and replaces it otherwise.
// Ingredient references are resolved by id, or by name when the id is zero;
// references the directory does not know are skipped.
func (s *Service) Save(d models.Dish) (models.Dish, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return models.Dish{}, fmt.Errorf("%w: name is required", ErrInvalidDish)
	}
	if !d.Category.Valid() {
		return models.Dish{}, fmt.Errorf("%w: %q", ErrInvalidCategory, d.Category)
	}

	if d.ID == 0 {
		id, err := s.store.NextID(sequenceName)
		if err != nil {
			return models.Dish{}, err
		}
		d.ID = id
	} else if _, err := s.GetByID(d.ID); err != nil {
		return models.Dish{}, err
	}

	resolved := make([]models.Ingredient, 0, len(d.Ingredients))
	for _, ref := range d.Ingredients {
		ingredient, err := s.resolve(ref)
		if err != nil {
			s.logger.Warn("Skipping ingredient %+v of dish %s: %v", ref, d.Name, err)
			continue
		}
		resolved = append(resolved, ingredient)
	}
	d.Ingredients = matching.Dedup(resolved)
	d.UpdatedAt = time.Now()

	r := record{
		ID:            d.ID,
		Name:          d.Name,
		Category:      d.Category,
		IngredientIDs: make([]int64, len(d.Ingredients)),
		UpdatedAt:     d.UpdatedAt,
	}
	for idx, i := range d.Ingredients {
		r.IngredientIDs[idx] = i.ID
	}

	if err := s.store.Set(dishKey(d.ID), r); err != nil {
		return models.Dish{}, fmt.Errorf("failed to save dish: %w", err)
	}

	s.logger.Info("Saved dish %d: %s (%d ingredients)", d.ID, d.Name, len(d.Ingredients))
	return d, nil
}

// DeleteByID removes the dish with the given id
func (s *Service) DeleteByID(id int64) error {
	err := s.store.Delete(dishKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	s.logger.Info("Deleted dish %d", id)
	return nil
}

func (s *Service) resolve(ref models.Ingredient) (models.Ingredient, error) {
	if ref.ID != 0 {
		return s.directory.GetByID(ref.ID)
	}
	return s.directory.GetByName(ref.Name)
}

// hydrate turns a stored record into a dish. Ingredients deleted from the
// directory since the dish was saved are dropped.
func (s *Service) hydrate(r record) models.Dish {
	d := models.Dish{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Ingredients: make([]models.Ingredient, 0, len(r.IngredientIDs)),
		UpdatedAt:   r.UpdatedAt,
	}
	for _, id := range r.IngredientIDs {
		ingredient, err := s.directory.GetByID(id)
		if err != nil {
			s.logger.Warn("Dish %d references unknown ingredient %d: %v", r.ID, id, err)
			continue
		}
		d.Ingredients = append(d.Ingredients, ingredient)
	}
	return d
}
