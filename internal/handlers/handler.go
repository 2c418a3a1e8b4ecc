package handlers

import (
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/logger"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket status stream — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerGenerationRoutes(api)
		h.registerRecordRoutes(api)
	}
}

func (h *Handler) registerGenerationRoutes(api *gin.RouterGroup) {
	gen := api.Group("/generation")
	{
		gen.POST("/today", h.generateToday)
		// Body example: {"days": 7}
		gen.POST("/historical", h.generateHistorical)
		gen.GET("/status", h.getStatus)
	}
}

func (h *Handler) registerRecordRoutes(api *gin.RouterGroup) {
	records := api.Group("/records")
	{
		records.GET("/", h.getRecords)
	}
}
