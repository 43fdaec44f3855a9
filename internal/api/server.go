package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"tessera/internal/cache"
	"tessera/internal/config"
	"tessera/internal/database"
	"tessera/internal/external"
	"tessera/internal/handlers"
	"tessera/internal/logger"
	"tessera/internal/messaging"
	"tessera/internal/metrics"
	"tessera/internal/middleware"
	"tessera/internal/repository"
	"tessera/internal/search"
	"tessera/internal/service"
	"tessera/internal/token"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
	provider external.PaymentProvider
}

// NewServer wires the whole API process. Postgres and NATS are hard
// dependencies; Valkey and Elasticsearch are optional accelerators the
// server runs without.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("Valkey unavailable, running without cache", "error", err)
		valkeyClient = nil
	}

	var esClient *search.Client
	if cfg.Elasticsearch.URL != "" {
		esClient, err = search.NewClient(cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, event search disabled", "error", err)
			esClient = nil
		}
	}

	provider := external.NewProvider(cfg.Payment)
	tokens := token.NewService(cfg.TokenSecret)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, tokens, provider, esClient, natsClient)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
		provider: provider,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.valkey, s.provider)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
			events.POST("/:id/classes", h.CreateTicketClass)
			events.GET("/:id/classes", h.ListTicketClasses)
			events.GET("/:id/availability", h.GetAvailability)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", h.CreateOrder)
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
			orders.POST("/:id/checkout", h.Checkout)
			orders.POST("/:id/mock-confirm", h.MockConfirm)
		}

		api.POST("/checkin", h.ValidateScan)
	}

	// The gateway authenticates callbacks by intent id, not user
	// credentials, so these stay outside Basic auth.
	payments := s.router.Group("/payments")
	{
		payments.GET("/success", h.NotifyPaymentCompleted)
		payments.GET("/fail", h.NotifyPaymentFailed)
		payments.POST("/notifications", h.OnPaymentUpdates)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	check := s.db.HealthCheck(c.Request.Context())
	if check.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": check,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tessera-api",
	})
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
