// Package ingredient is the ingredient directory: the catalog of every known
// ingredient, addressable by id or by name.
package ingredient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto"

	"github.com/korjavin/whatthefridge/pkg/logger"
	"github.com/korjavin/whatthefridge/pkg/matching"
	"github.com/korjavin/whatthefridge/pkg/models"
	"github.com/korjavin/whatthefridge/pkg/storage"
)

// ErrNotFound is returned when no ingredient matches the lookup
var ErrNotFound = errors.New("ingredient not found")

const (
	ingredientPrefix = "ingredient:"
	namePrefix       = "ingredient_name:"
	sequenceName     = "ingredient"
)

// Service provides the ingredient directory
type Service struct {
	store  *storage.Store
	cache  *ristretto.Cache
	logger *logger.Logger
}

// New creates a new ingredient service
func New(store *storage.Store) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ingredient cache: %w", err)
	}

	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.New("ingredient"),
	}, nil
}

// Close releases the name cache
func (s *Service) Close() {
	s.cache.Close()
}

func ingredientKey(id int64) string {
	return fmt.Sprintf("%s%d", ingredientPrefix, id)
}

func nameKey(name string) string {
	return namePrefix + name
}

// Add registers a new ingredient. Adding a name that already exists returns
// the existing record.
func (s *Service) Add(name string) (models.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Ingredient{}, fmt.Errorf("ingredient name is required")
	}

	existing, err := s.GetByName(name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Ingredient{}, err
	}

	id, err := s.store.NextID(sequenceName)
	if err != nil {
		return models.Ingredient{}, err
	}

	ingredient := models.Ingredient{ID: id, Name: name}
	if err := s.store.Set(ingredientKey(id), ingredient); err != nil {
		return models.Ingredient{}, fmt.Errorf("failed to save ingredient: %w", err)
	}
	if err := s.store.Set(nameKey(name), id); err != nil {
		return models.Ingredient{}, fmt.Errorf("failed to index ingredient name: %w", err)
	}

	s.logger.Info("Added ingredient %d: %s", id, name)
	return ingredient, nil
}

// GetByID returns the ingredient with the given id
func (s *Service) GetByID(id int64) (models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.store.Get(ingredientKey(id), &ingredient)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Ingredient{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return models.Ingredient{}, err
	}
	return ingredient, nil
}

// GetByName returns the canonical ingredient record for name
func (s *Service) GetByName(name string) (models.Ingredient, error) {
	if cached, ok := s.cache.Get(name); ok {
		return cached.(models.Ingredient), nil
	}

	var id int64
	err := s.store.Get(nameKey(name), &id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Ingredient{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return models.Ingredient{}, err
	}

	ingredient, err := s.GetByID(id)
	if err != nil {
		return models.Ingredient{}, err
	}

	s.cache.Set(name, ingredient, 1)
	return ingredient, nil
}

// Exists reports whether an ingredient with the given id is known
func (s *Service) Exists(id int64) bool {
	_, err := s.GetByID(id)
	return err == nil
}

// GetAll returns every ingredient sorted by name
func (s *Service) GetAll() ([]models.Ingredient, error) {
	keys, err := s.store.List(ingredientPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}

	ingredients := make([]models.Ingredient, 0, len(keys))
	for _, key := range keys {
		var ingredient models.Ingredient
		if err := s.store.Get(key, &ingredient); err != nil {
			s.logger.Error("Failed to get ingredient %s: %v", key, err)
			continue
		}
		ingredients = append(ingredients, ingredient)
	}

	return matching.SortByName(ingredients), nil
}
