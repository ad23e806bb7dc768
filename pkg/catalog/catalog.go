// Package catalog seeds an empty store with a starter set of ingredients and dishes.
package catalog

import (
	"fmt"

	"github.com/korjavin/whatthefridge/pkg/dish"
	"github.com/korjavin/whatthefridge/pkg/ingredient"
	"github.com/korjavin/whatthefridge/pkg/logger"
	"github.com/korjavin/whatthefridge/pkg/models"
)

// DefaultIngredients is the starter ingredient list
var DefaultIngredients = []string{
	"Butter", "Cheese", "Chicken", "Egg", "Flour", "Garlic", "Milk", "Onion",
	"Pasta", "Pepper", "Potato", "Rice", "Salt", "Sugar", "Tomato",
}

// DefaultDishes is the starter dish list
var DefaultDishes = []struct {
	Name        string
	Category    models.Category
	Ingredients []string
}{
	{"Omelette", models.CategorySavory, []string{"Egg", "Milk", "Salt"}},
	{"Pancakes", models.CategorySweet, []string{"Egg", "Flour", "Milk", "Sugar"}},
	{"Spaghetti Pomodoro", models.CategorySavory, []string{"Garlic", "Pasta", "Salt", "Tomato"}},
	{"Mashed Potatoes", models.CategorySavory, []string{"Butter", "Milk", "Potato", "Salt"}},
	{"Chicken Fried Rice", models.CategorySavory, []string{"Chicken", "Egg", "Onion", "Rice"}},
	{"Rice Pudding", models.CategorySweet, []string{"Milk", "Rice", "Sugar"}},
}

// Seed fills the catalog when it holds no ingredients yet. Deleting every
// dish does not trigger a new seed. It returns the number
// of dishes created.
func Seed(ingredients *ingredient.Service, dishes *dish.Service) (int, error) {
	log := logger.New("catalog")

	existing, err := ingredients.GetAll()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.Debug("Catalog already holds %d ingredients, skipping seed", len(existing))
		return 0, nil
	}

	for _, name := range DefaultIngredients {
		if _, err := ingredients.Add(name); err != nil {
			return 0, fmt.Errorf("failed to seed ingredient %s: %w", name, err)
		}
	}

	created := 0
	for _, d := range DefaultDishes {
		entry := models.Dish{Name: d.Name, Category: d.Category}
		for _, name := range d.Ingredients {
			entry.Ingredients = append(entry.Ingredients, models.Ingredient{Name: name})
		}
		if _, err := dishes.Save(entry); err != nil {
			return created, fmt.Errorf("failed to seed dish %s: %w", d.Name, err)
		}
		created++
	}

	log.Info("Seeded catalog with %d ingredients and %d dishes", len(DefaultIngredients), created)
	return created, nil
}
