package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"jsonapiq/internal/domain/query"
	"jsonapiq/internal/infrastructure/http/v1/handlers"
	"jsonapiq/internal/infrastructure/http/v1/middleware"
	"jsonapiq/internal/infrastructure/storage/postgres/entity_repo"
	"jsonapiq/internal/metadata"
	"jsonapiq/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Registry stores entity definitions
	Registry *metadata.Registry

	// Parser turns query strings into queries
	Parser *query.Parser

	// Compiler renders queries as SQL
	Compiler *entity_repo.Compiler

	// Finder executes queries; nil when no database is configured
	Finder handlers.Finder

	// DB is checked by the readiness probe; nil when no database is configured
	DB handlers.Pinger

	// Development enables gin debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Registry)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()
	api := router.Group("/jsonapi")
	{
		metaHandler := handlers.NewMetadataHandler(baseHandler, cfg.Registry)
		api.GET("/meta", metaHandler.ListEntities)
		api.GET("/meta/:name", metaHandler.GetEntity)

		collections := handlers.NewCollectionHandler(baseHandler, handlers.CollectionHandlerConfig{
			Parser:   cfg.Parser,
			Compiler: cfg.Compiler,
			Finder:   cfg.Finder,
		})
		RegisterResourceRoutes(api, cfg.Registry, collections)
	}

	return router
}

// gzipMinSize is the smallest response body worth compressing.
const gzipMinSize = 512

// NewHandler returns the router wrapped in gzip compression.
func NewHandler(cfg RouterConfig) (http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize))
	if err != nil {
		return nil, fmt.Errorf("gzip wrapper: %w", err)
	}
	return wrap(NewRouter(cfg)), nil
}
