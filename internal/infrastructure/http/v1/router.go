package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"spareparts/internal/infrastructure/http/v1/handlers"
	"spareparts/internal/infrastructure/http/v1/middleware"
	"spareparts/internal/infrastructure/mockapi"
	"spareparts/pkg/logger"
)

// APIPrefix is where the REST endpoints are mounted.
const APIPrefix = "/api"

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Backend holds the state and rules
	Backend *mockapi.Backend

	// JWT issues and validates tokens
	JWT *mockapi.JWTService

	// Logger for request logging
	Logger *logger.Logger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Order matters: errors recorded by Recovery are rendered by ErrorHandler.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	base := handlers.NewBaseHandler(cfg.Backend.Options().ResultsStyle)
	parts := handlers.NewPartHandler(base, cfg.Backend)

	health := handlers.NewHealthHandler()
	router.GET("/health/live", health.Live)
	router.GET(mockapi.MediaPrefix+":name", parts.Image)

	api := router.Group(APIPrefix)
	{
		auth := handlers.NewAuthHandler(base, cfg.Backend, cfg.JWT)
		protectedAuth := api.Group("/auth")
		protectedAuth.Use(middleware.Auth(cfg.JWT), middleware.CurrentUser(cfg.Backend))
		auth.RegisterRoutes(api.Group("/auth"), protectedAuth)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWT))
		protected.Use(middleware.CurrentUser(cfg.Backend))
		protected.Use(middleware.RequireEditor())

		catalog := handlers.NewCatalogHandler(base, cfg.Backend)
		protected.GET("/sites/", catalog.Sites)
		protected.GET("/categories/", catalog.Categories)
		protected.POST("/categories/", catalog.CreateCategory)

		RegisterResourceRoutes(protected.Group("/spare-parts"), parts)

		tx := handlers.NewTransactionHandler(base, cfg.Backend)
		transactions := protected.Group("/transactions")
		transactions.GET("/", tx.List)
		transactions.POST("/", tx.Create)
		transactions.GET("/by_spare_part", tx.ByPart)
		transactions.GET("/by_spare_part/", tx.ByPart)
		transactions.GET("/statistics/", tx.Statistics)
	}

	return router
}

// NewHandler wraps the router with response compression.
func NewHandler(cfg RouterConfig) http.Handler {
	return gzhttp.GzipHandler(NewRouter(cfg))
}
