package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"code-review-market/config"
	"code-review-market/middleware"
	"code-review-market/models"
	"code-review-market/services"
	"code-review-market/utils"
	ws "code-review-market/websocket"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Services *services.Services
	Hub      *ws.Hub
	Config   *config.Config
	Log      *zap.Logger
	Limiter  *middleware.RateLimiter
	// Ping reports storage health for /health; nil skips the check.
	Ping func(ctx context.Context) error
}

type Handler struct {
	svc      *services.Services
	hub      *ws.Hub
	upgrader gorillaws.Upgrader
	log      *zap.Logger
	ping     func(ctx context.Context) error
}

// NewRouter builds the gin engine with the full middleware stack and every
// /api/v1 route registered.
func NewRouter(d Deps) *gin.Engine {
	h := &Handler{
		svc:      d.Services,
		hub:      d.Hub,
		upgrader: ws.NewUpgrader(d.Config.Server.AllowedOrigins),
		log:      d.Log,
		ping:     d.Ping,
	}
	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(d.Config.RateLimit.RequestsPerSecond, d.Config.RateLimit.Burst)
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.RateLimitMiddleware(limiter, d.Log))

	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware(limiter, d.Log))
		h.RegisterAuthRoutes(authRoutes)

		api.GET("/ws", middleware.WebSocketAuthMiddleware(d.Services.Auth, d.Log), h.serveWebSocket)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(d.Services.Auth, d.Log))
		{
			protected.GET("/auth/me", h.me)
			h.RegisterRequestRoutes(protected.Group("/requests"))
			h.RegisterReviewRoutes(protected)
			h.RegisterNotificationRoutes(protected.Group("/notifications"))
		}
	}

	router.NoRoute(func(c *gin.Context) {
		utils.AbortWithError(c, http.StatusNotFound, string(services.KindNotFound), "route not found")
	})
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (h *Handler) health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "time": time.Now().UTC()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (h *Handler) serveWebSocket(c *gin.Context) {
	ws.ServeWebSocket(h.hub, h.upgrader, c.Writer, c.Request, middleware.CurrentUser(c))
}

// actor is the authenticated caller. Routes behind AuthMiddleware always have one.
func actor(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}
