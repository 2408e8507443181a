package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/config"
	"clinicalforge/contributor-portal/contributor-portal-backend/internal/dashboard"
	"clinicalforge/contributor-portal/contributor-portal-backend/internal/submissions"
)

// The dashboard worker keeps the stats cache warm so interactive reads hit a
// fresh snapshot even on quiet instances where no request traffic triggers a
// recompute.
func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	collection := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	repo := submissions.NewMongoRepository(collection, cfg.Mongo.QueryTimeout)

	aggregatorConfig := dashboard.DefaultAggregatorConfig()
	aggregatorConfig.WindowSize = cfg.Dashboard.WindowSize
	aggregatorConfig.CacheTTL = cfg.Dashboard.CacheTTL
	aggregator := dashboard.NewAggregator(repo, logger, aggregatorConfig)
	defer aggregator.Stop()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Dashboard.RefreshSpec, func() {
		start := time.Now()
		stats := aggregator.Refresh(context.Background())
		logger.Info("Dashboard stats refreshed",
			zap.Int("total_forms", stats.TotalForms),
			zap.Int("contributors", stats.TotalContributors),
			zap.Bool("connected", stats.SystemHealth.IsConnected),
			zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		logger.Fatal("Invalid refresh schedule", zap.String("spec", cfg.Dashboard.RefreshSpec), zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Dashboard worker started", zap.String("schedule", cfg.Dashboard.RefreshSpec))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("Dashboard worker exiting")
}
