package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/korjavin/whatthefridge/pkg/dish"
	"github.com/korjavin/whatthefridge/pkg/logger"
	"github.com/korjavin/whatthefridge/pkg/matching"
	"github.com/korjavin/whatthefridge/pkg/models"
	"github.com/korjavin/whatthefridge/pkg/state"
)

// IngredientDirectory lists and resolves catalog ingredients
type IngredientDirectory interface {
	GetAll() ([]models.Ingredient, error)
	GetByName(name string) (models.Ingredient, error)
	Exists(id int64) bool
}

// DishRepository stores and searches dishes
type DishRepository interface {
	GetByID(id int64) (models.Dish, error)
	List() ([]models.Dish, error)
	FindByIngredientNames(names []string, category models.Category) ([]models.Dish, error)
	Save(d models.Dish) (models.Dish, error)
	DeleteByID(id int64) error
	Ingredients(id int64) ([]models.Ingredient, error)
}

// IngredientParser turns free text into catalog ingredient names
type IngredientParser interface {
	ParseIngredientsFromText(ctx context.Context, text string, catalog []string) ([]string, error)
}

// Handler serves the catalog pages
type Handler struct {
	ingredients IngredientDirectory
	dishes      DishRepository
	selections  state.Store
	parser      IngredientParser
	logger      *logger.Logger
}

// NewHandler creates a handler. parser may be nil, in which case free-text
// fridge submissions are rejected.
func NewHandler(ingredients IngredientDirectory, dishes DishRepository, selections state.Store, parser IngredientParser) *Handler {
	return &Handler{
		ingredients: ingredients,
		dishes:      dishes,
		selections:  selections,
		parser:      parser,
		logger:      logger.New("web"),
	}
}

// IndexResponse is the landing page model
type IndexResponse struct {
	Ingredients []models.Ingredient `json:"ingredients"`
	Selection   []models.Ingredient `json:"selection,omitempty"`
}

// DishesResponse lists dishes
type DishesResponse struct {
	Dishes    []models.Dish       `json:"dishes"`
	Selection []models.Ingredient `json:"selection,omitempty"`
}

// DishResponse is the single dish view. Available and Missing are only
// present when the session has a selection.
type DishResponse struct {
	Dish         models.Dish         `json:"dish"`
	Ingredients  []models.Ingredient `json:"ingredients"`
	Available    []models.Ingredient `json:"available,omitempty"`
	Missing      []models.Ingredient `json:"missing,omitempty"`
	HasSelection bool                `json:"has_selection"`
}

// DishFormResponse pre-populates the new and edit forms
type DishFormResponse struct {
	Dish        models.Dish         `json:"dish"`
	Ingredients []models.Ingredient `json:"ingredients,omitempty"`
	Checklist   models.Checklist    `json:"checklist,omitempty"`
}

// SaveDishRequest creates or updates a dish
type SaveDishRequest struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	IngredientIDs []int64 `json:"ingredient_ids"`
}

// UpdateChecklistRequest replaces a dish's ingredients with the checked entries
type UpdateChecklistRequest struct {
	Checklist models.Checklist `json:"checklist"`
}

// FridgeTextRequest submits the fridge contents as free text
type FridgeTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// HealthCheck answers liveness probes
func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Index returns every ingredient and the current selection
func (h *Handler) Index(c *gin.Context) {
	all, err := h.ingredients.GetAll()
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := IndexResponse{Ingredients: all}

	sel, ok, err := h.selection(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ok {
		resp.Selection = sel
	}
	respondOK(c, resp)
}

// ListIngredients returns every ingredient sorted by name
func (h *Handler) ListIngredients(c *gin.Context) {
	all, err := h.ingredients.GetAll()
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, all)
}

// FindDishes filters dishes by the submitted ingredient names and dishType.
// Any submission of the ingredient field, even one without a usable name,
// replaces the session's selection.
func (h *Handler) FindDishes(c *gin.Context) {
	category, err := dish.ParseCategoryFilter(c.Query("dishType"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	names, submitted := c.GetQueryArray("ingredient")
	resolved, err := matching.ResolveSelection(h.ingredients, names)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := DishesResponse{}
	if submitted {
		sel, err := h.selections.Set(c.Request.Context(), sessionID(c), resolved)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp.Selection = sel.Ingredients
	}

	resp.Dishes, err = h.dishes.FindByIngredientNames(matching.Names(resolved), category)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, resp)
}

// SubmitFridgeText replaces the selection with the ingredients found in free text
func (h *Handler) SubmitFridgeText(c *gin.Context) {
	if h.parser == nil {
		respondError(c, http.StatusNotImplemented, "not_configured", errors.New("free-text parsing is not configured"))
		return
	}

	var req FridgeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	all, err := h.ingredients.GetAll()
	if err != nil {
		h.fail(c, err)
		return
	}

	names, err := h.parser.ParseIngredientsFromText(c.Request.Context(), req.Text, matching.Names(all))
	if err != nil {
		respondError(c, http.StatusBadGateway, "upstream", err)
		return
	}

	resolved, err := matching.ResolveSelection(h.ingredients, names)
	if err != nil {
		h.fail(c, err)
		return
	}

	sel, err := h.selections.Set(c.Request.Context(), sessionID(c), resolved)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, IndexResponse{Ingredients: all, Selection: sel.Ingredients})
}

// ClearFridge forgets the session's selection
func (h *Handler) ClearFridge(c *gin.Context) {
	if err := h.selections.Clear(c.Request.Context(), sessionID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AllDishes lists every dish
func (h *Handler) AllDishes(c *gin.Context) {
	dishes, err := h.dishes.List()
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, DishesResponse{Dishes: dishes})
}

// NewDish returns an empty dish form with the ingredient catalog
func (h *Handler) NewDish(c *gin.Context) {
	all, err := h.ingredients.GetAll()
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, DishFormResponse{Dish: models.Dish{Ingredients: []models.Ingredient{}}, Ingredients: all})
}

// GetDish shows one dish and, when the session has a selection, which of
// its ingredients are available and which are missing
func (h *Handler) GetDish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	d, err := h.dishes.GetByID(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := DishResponse{
		Dish:        d,
		Ingredients: matching.SortByName(d.Ingredients),
	}

	sel, hasSelection, err := h.selection(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if hasSelection {
		resp.HasSelection = true
		resp.Available = matching.Available(d, sel)
		resp.Missing = matching.Missing(d, sel)
	}
	respondOK(c, resp)
}

// SaveDish creates or updates a dish. Unknown ingredient ids are skipped.
func (h *Handler) SaveDish(c *gin.Context) {
	var req SaveDishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	category, err := models.ParseCategory(req.Category)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	d := models.Dish{ID: req.ID, Name: req.Name, Category: category}
	for _, id := range req.IngredientIDs {
		if !h.ingredients.Exists(id) {
			h.logger.Debug("Ignoring unknown ingredient %d for dish %q", id, req.Name)
			continue
		}
		d.Ingredients = append(d.Ingredients, models.Ingredient{ID: id})
	}

	saved, err := h.dishes.Save(d)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, saved)
}

// EditDish returns the dish with a checklist of every known ingredient
func (h *Handler) EditDish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	d, err := h.dishes.GetByID(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ingredients, err := h.dishes.Ingredients(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondChecklist(c, d, ingredients)
}

// UpdateDishIngredients replaces the dish's ingredients with the checked
// entries of the submitted checklist
func (h *Handler) UpdateDishIngredients(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	d, err := h.dishes.GetByID(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	// ids sent by the client are ignored, names identify ingredients
	checked := matching.ExtractChecked(req.Checklist)
	d.Ingredients = make([]models.Ingredient, len(checked))
	for idx, i := range checked {
		d.Ingredients[idx] = models.Ingredient{Name: matching.NameKey(i)}
	}

	saved, err := h.dishes.Save(d)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondChecklist(c, saved, saved.Ingredients)
}

// DeleteDish removes a dish
func (h *Handler) DeleteDish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.dishes.DeleteByID(id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondChecklist(c *gin.Context, d models.Dish, dishIngredients []models.Ingredient) {
	all, err := h.ingredients.GetAll()
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, DishFormResponse{
		Dish:      d,
		Checklist: matching.BuildChecklist(dishIngredients, all),
	})
}

// selection loads the session's selection and re-resolves it against the
// directory. ok is false when the session never submitted one.
func (h *Handler) selection(c *gin.Context) ([]models.Ingredient, bool, error) {
	sel, err := h.selections.Get(c.Request.Context(), sessionID(c))
	if errors.Is(err, state.ErrNoSelection) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	resolved, err := matching.ResolveSelection(h.ingredients, matching.Names(sel.Ingredients))
	if err != nil {
		return nil, false, err
	}
	return resolved, true, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.With("session "+sessionID(c)).Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	respondError(c, status, code, err)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}
