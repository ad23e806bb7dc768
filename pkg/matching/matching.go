// Package matching reconciles the ingredients a dish requires with the
// ingredients a user has selected. Every function here is pure: inputs are
// never modified and a new collection is always returned.
//
// Ingredients are compared by NameKey only, never by ID.
package matching

import (
	"sort"
	"strings"

	"github.com/korjavin/whatthefridge/pkg/models"
)

// IngredientResolver looks up canonical ingredient records by name
type IngredientResolver interface {
	GetByName(name string) (models.Ingredient, error)
}

// NameKey returns the identity of an ingredient
func NameKey(i models.Ingredient) string {
	return i.Name
}

// SortByName returns a copy of ingredients ordered by name
func SortByName(ingredients []models.Ingredient) []models.Ingredient {
	out := make([]models.Ingredient, len(ingredients))
	copy(out, ingredients)
	sort.SliceStable(out, func(i, j int) bool {
		return NameKey(out[i]) < NameKey(out[j])
	})
	return out
}

// Dedup removes later duplicates by name, keeping the order of first occurrence
func Dedup(ingredients []models.Ingredient) []models.Ingredient {
	seen := make(map[string]bool, len(ingredients))
	out := make([]models.Ingredient, 0, len(ingredients))
	for _, i := range ingredients {
		key := NameKey(i)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, i)
	}
	return out
}

// NameSet builds a lookup set of ingredient names
func NameSet(ingredients []models.Ingredient) map[string]bool {
	set := make(map[string]bool, len(ingredients))
	for _, i := range ingredients {
		set[NameKey(i)] = true
	}
	return set
}

// Names returns the names of ingredients in order
func Names(ingredients []models.Ingredient) []string {
	names := make([]string, len(ingredients))
	for idx, i := range ingredients {
		names[idx] = NameKey(i)
	}
	return names
}

// ResolveSelection turns submitted ingredient names into canonical records,
// sorted by name with duplicates collapsed. Blank names are ignored.
// A name the resolver does not know fails the whole resolution.
func ResolveSelection(resolver IngredientResolver, names []string) ([]models.Ingredient, error) {
	resolved := make([]models.Ingredient, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ingredient, err := resolver.GetByName(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ingredient)
	}
	return Dedup(SortByName(resolved)), nil
}

// Available returns the members of selection that the dish requires,
// in selection order.
func Available(dish models.Dish, selection []models.Ingredient) []models.Ingredient {
	required := NameSet(dish.Ingredients)
	out := make([]models.Ingredient, 0, len(selection))
	for _, i := range Dedup(selection) {
		if required[NameKey(i)] {
			out = append(out, i)
		}
	}
	return out
}

// Missing returns the dish ingredients absent from selection, sorted by name
func Missing(dish models.Dish, selection []models.Ingredient) []models.Ingredient {
	have := NameSet(selection)
	out := make([]models.Ingredient, 0, len(dish.Ingredients))
	for _, i := range Dedup(dish.Ingredients) {
		if !have[NameKey(i)] {
			out = append(out, i)
		}
	}
	return SortByName(out)
}

// BuildChecklist maps every ingredient of allIngredients to whether the dish
// contains it. Dish ingredients unknown to allIngredients are ignored.
func BuildChecklist(dishIngredients, allIngredients []models.Ingredient) models.Checklist {
	inDish := NameSet(dishIngredients)
	all := Dedup(SortByName(allIngredients))
	checklist := make(models.Checklist, len(all))
	for idx, i := range all {
		checklist[idx] = models.ChecklistEntry{Ingredient: i, Present: inDish[NameKey(i)]}
	}
	return checklist
}

// ExtractChecked returns the ingredients flagged present, sorted by name
func ExtractChecked(checklist models.Checklist) []models.Ingredient {
	checked := make([]models.Ingredient, 0, len(checklist))
	for _, e := range checklist {
		if e.Present {
			checked = append(checked, e.Ingredient)
		}
	}
	return Dedup(SortByName(checked))
}
