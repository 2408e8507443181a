package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/auth"
	"clinicalforge/contributor-portal/contributor-portal-backend/internal/config"
	"clinicalforge/contributor-portal/contributor-portal-backend/internal/dashboard"
	"clinicalforge/contributor-portal/contributor-portal-backend/internal/submissions"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to the document store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	collection := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)

	// Wire modules
	repo := submissions.NewMongoRepository(collection, cfg.Mongo.QueryTimeout)
	engine := submissions.NewEngine(nil)
	submissionService := submissions.NewService(repo, engine, logger)
	submissionHandler := submissions.NewHandler(submissionService, logger, auth.CollaboratorFrom)

	aggregatorConfig := dashboard.DefaultAggregatorConfig()
	aggregatorConfig.WindowSize = cfg.Dashboard.WindowSize
	aggregatorConfig.CacheTTL = cfg.Dashboard.CacheTTL
	aggregator := dashboard.NewAggregator(repo, logger, aggregatorConfig)
	defer aggregator.Stop()

	hub := dashboard.NewHub(logger)
	dashboardHandler := dashboard.NewHandler(aggregator, hub, submissionService, logger)

	// Push refreshed stats to dashboard clients on every collection change.
	// Change streams need a replica set; a standalone store just skips this.
	subscription, err := aggregator.Subscribe(context.Background(),
		func(ctx context.Context) (dashboard.ChangeStream, error) {
			return repo.Watch(ctx)
		},
		hub.BroadcastStats)
	if err != nil {
		logger.Warn("Change-stream subscription unavailable, dashboards refresh on demand", zap.Error(err))
	} else {
		defer subscription.Unsubscribe()
	}

	// Setup Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api/v1")
	{
		protected := api.Group("")
		protected.Use(auth.Middleware(cfg.Security.JWTSecret))
		submissionHandler.RegisterRoutes(protected)

		dashboardHandler.RegisterRoutes(api)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
