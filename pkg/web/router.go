package web

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/korjavin/whatthefridge/pkg/logger"
)

// RouterConfig wires the router
type RouterConfig struct {
	Handler     *Handler
	Logger      *logger.Logger
	SessionTTL  time.Duration
	CORSOrigins []string
}

// NewRouter builds the gin engine serving the catalog
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger))
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	h := cfg.Handler
	r.GET("/healthcheck", h.HealthCheck)

	pages := r.Group("/")
	pages.Use(Session(cfg.SessionTTL))
	{
		pages.GET("/", h.Index)
		pages.GET("/ingredients", h.ListIngredients)

		// Fridge selection
		pages.GET("/dishes", h.FindDishes)
		pages.POST("/fridge/text", h.SubmitFridgeText)
		pages.DELETE("/fridge", h.ClearFridge)

		// Dishes
		pages.GET("/dishes/all", h.AllDishes)
		pages.GET("/dish/new", h.NewDish)
		pages.GET("/dish/get/:id", h.GetDish)
		pages.POST("/dish/save", h.SaveDish)
		pages.GET("/dish/update/:id", h.EditDish)
		pages.PUT("/dish/update/:id", h.UpdateDishIngredients)
		pages.GET("/dish/delete/:id", h.DeleteDish)
		pages.DELETE("/dish/delete/:id", h.DeleteDish)
	}

	return r
}
