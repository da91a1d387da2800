package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mpalmer79/dealdesk/config"
	"github.com/mpalmer79/dealdesk/finance"
	"github.com/mpalmer79/dealdesk/handler"
	"github.com/mpalmer79/dealdesk/middleware"
	"github.com/mpalmer79/dealdesk/pkg/logger"
	"github.com/mpalmer79/dealdesk/repository"
	"github.com/mpalmer79/dealdesk/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Pick the worksheet repository backend
	var repo repository.WorksheetRepository
	switch cfg.Store.Backend {
	case "redis":
		redisRepo := repository.NewRedisRepository(cfg.Store.RedisAddr)
		if err := redisRepo.Ping(context.Background()); err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Store.RedisAddr, "error", err)
			os.Exit(1)
		}
		repo = redisRepo
		slog.Info("using redis worksheet repository", "addr", cfg.Store.RedisAddr)
	default:
		repo = repository.NewMemoryRepository()
		slog.Info("using in-memory worksheet repository")
	}

	terms := make([]finance.TermRate, 0, len(cfg.Terms.Menu))
	for _, tr := range cfg.Terms.Menu {
		terms = append(terms, finance.TermRate{Months: tr.Months, APR: tr.APR})
	}

	store := service.NewWorksheetStore(repo, service.SlogNotifier{}, service.StoreOptions{
		Terms:         terms,
		DefaultTerm:   cfg.Terms.DefaultMonths,
		Fees:          service.Fees{DocFee: cfg.Fees.DocFee, TitleFee: cfg.Fees.TitleFee},
		MaxWorksheets: cfg.Store.MaxWorksheets,
	})

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(cfg)
	worksheetHandler := handler.NewWorksheetHandler(store)
	calculatorHandler := handler.NewCalculatorHandler()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes; session bootstrap and login are rate limited per IP
	api := router.Group("/api")
	{
		api.POST("/session/start", middleware.RateLimit(10, time.Minute), sessionHandler.StartSession)
		api.POST("/auth/login", middleware.RateLimit(10, time.Minute), sessionHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", sessionHandler.Me)

		protected.POST("/worksheets", worksheetHandler.Create)
		protected.GET("/worksheets/:id", worksheetHandler.Get)
		protected.PATCH("/worksheets/:id", worksheetHandler.Patch)
		protected.POST("/worksheets/:id/ready", worksheetHandler.MarkReady)

		protected.POST("/worksheets/:id/override", middleware.RequireManager(), worksheetHandler.Override)
		protected.GET("/worksheets", middleware.RequireManager(), worksheetHandler.List)

		// Stateless calculator screen
		calculator := protected.Group("/calculator")
		calculator.Use(middleware.RateLimit(60, time.Minute))
		{
			calculator.POST("/finance", calculatorHandler.Finance)
			calculator.POST("/lease", calculatorHandler.Lease)
			calculator.POST("/buying-power", calculatorHandler.BuyingPower)
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("deal desk listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		return
	case <-quit:
		slog.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("error during server shutdown", "error", err)
	}

	slog.Info("server exited")
}
