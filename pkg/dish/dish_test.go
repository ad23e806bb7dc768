package dish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/whatthefridge/pkg/ingredient"
	"github.com/korjavin/whatthefridge/pkg/matching"
	"github.com/korjavin/whatthefridge/pkg/models"
	"github.com/korjavin/whatthefridge/pkg/storage"
)

type fixture struct {
	dishes      *Service
	ingredients *ingredient.Service
	byName      map[string]models.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewInMemory()
	require.NoError(t, err)
	ingredients, err := ingredient.New(store)
	require.NoError(t, err)
	t.Cleanup(func() {
		ingredients.Close()
		_ = store.Close()
	})

	f := &fixture{
		dishes:      New(store, ingredients),
		ingredients: ingredients,
		byName:      map[string]models.Ingredient{},
	}
	for _, name := range []string{"Egg", "Milk", "Salt", "Pepper", "Sugar", "Flour"} {
		i, err := ingredients.Add(name)
		require.NoError(t, err)
		f.byName[name] = i
	}
	return f
}

func (f *fixture) save(t *testing.T, name string, category models.Category, ingredients ...string) models.Dish {
	t.Helper()
	d := models.Dish{Name: name, Category: category}
	for _, n := range ingredients {
		d.Ingredients = append(d.Ingredients, models.Ingredient{ID: f.byName[n].ID})
	}
	saved, err := f.dishes.Save(d)
	require.NoError(t, err)
	return saved
}

func TestSaveAndGet(t *testing.T) {
	f := newFixture(t)

	saved := f.save(t, "Omelette", models.CategorySavory, "Salt", "Egg", "Milk")
	assert.NotZero(t, saved.ID)

	got, err := f.dishes.GetByID(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", got.Name)
	assert.Equal(t, models.CategorySavory, got.Category)
	assert.ElementsMatch(t, []string{"Egg", "Milk", "Salt"}, matching.Names(got.Ingredients))

	sorted, err := f.dishes.Ingredients(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Egg", "Milk", "Salt"}, matching.Names(sorted))
}

func TestSaveSkipsUnknownAndDuplicateIngredients(t *testing.T) {
	f := newFixture(t)

	saved, err := f.dishes.Save(models.Dish{
		Name:     "Pancakes",
		Category: models.CategorySweet,
		Ingredients: []models.Ingredient{
			{ID: f.byName["Flour"].ID},
			{ID: 9999},
			{Name: "Milk"},
			{Name: "Flour"},
			{Name: "Dragonfruit"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Flour", "Milk"}, matching.Names(saved.Ingredients))
}

func TestSaveUpdatesExisting(t *testing.T) {
	f := newFixture(t)
	saved := f.save(t, "Omelette", models.CategorySavory, "Egg")

	saved.Name = "Cheese Omelette"
	saved.Ingredients = append(saved.Ingredients, models.Ingredient{Name: "Milk"})
	updated, err := f.dishes.Save(saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	all, err := f.dishes.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Cheese Omelette", all[0].Name)
	assert.Len(t, all[0].Ingredients, 2)
}

func TestSaveValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.dishes.Save(models.Dish{Name: " ", Category: models.CategorySweet})
	assert.ErrorIs(t, err, ErrInvalidDish)

	_, err = f.dishes.Save(models.Dish{Name: "Soup", Category: "spicy"})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = f.dishes.Save(models.Dish{ID: 77, Name: "Ghost", Category: models.CategorySweet})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	saved := f.save(t, "Omelette", models.CategorySavory, "Egg")

	require.NoError(t, f.dishes.DeleteByID(saved.ID))

	_, err := f.dishes.GetByID(saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.dishes.DeleteByID(saved.ID), ErrNotFound)
}

func TestFindByIngredientNamesMatchesAny(t *testing.T) {
	f := newFixture(t)
	omelette := f.save(t, "Omelette", models.CategorySavory, "Egg", "Milk", "Salt")
	pancakes := f.save(t, "Pancakes", models.CategorySweet, "Egg", "Flour", "Sugar")
	f.save(t, "Seasoning", models.CategorySavory, "Salt", "Pepper")

	tests := []struct {
		name     string
		names    []string
		category models.Category
		want     []int64
	}{
		{"any category", []string{"Egg"}, "", []int64{omelette.ID, pancakes.ID}},
		{"savory only", []string{"Egg"}, models.CategorySavory, []int64{omelette.ID}},
		{"sweet only", []string{"Egg", "Milk"}, models.CategorySweet, []int64{pancakes.ID}},
		{"one of many names", []string{"Sugar", "Unknown"}, "", []int64{pancakes.ID}},
		{"no names", nil, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.dishes.FindByIngredientNames(tt.names, tt.category)
			require.NoError(t, err)
			ids := make([]int64, 0, len(got))
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			if tt.want == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := f.dishes.FindByIngredientNames([]string{"Egg"}, "umami")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestParseCategoryFilter(t *testing.T) {
	for input, want := range map[string]models.Category{
		"":       "",
		"both":   "",
		"BOTH":   "",
		"savory": models.CategorySavory,
		"Sweet":  models.CategorySweet,
	} {
		got, err := ParseCategoryFilter(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseCategoryFilter("bitter")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
