package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"jobforge/internal/api"
	"jobforge/internal/api/handler"
	"jobforge/internal/client"
	"jobforge/internal/config"
	"jobforge/internal/core/postgres/repository"
	"jobforge/internal/domain"
	infraredis "jobforge/internal/infrastructure/redis"
	"jobforge/internal/service"
	"jobforge/internal/submitter"
	"jobforge/internal/tracker"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	if err := db.WithContext(ctx).AutoMigrate(&domain.Definition{}); err != nil {
		logger.Fatal("migrate schema", zap.Error(err))
	}
	repo := repository.NewDefinitionRepository(db)

	// 2. Redis: submission queue and result bus
	redisClient, err := infraredis.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal("connect to redis", zap.Error(err))
	}
	queue := infraredis.NewSubmissionQueue(redisClient)
	bus := infraredis.NewEventBus(redisClient)

	// 3. Jobs API client
	jobsAPI := client.New(client.Config{
		Host:    cfg.Databricks.Host,
		Token:   cfg.Databricks.Token,
		Timeout: time.Duration(cfg.Databricks.TimeoutSeconds) * time.Second,
	}, logger)

	// 4. Submission pipeline
	sub := submitter.New(queue, repo, jobsAPI, bus, logger, cfg.Submitter.MaxAttempts)
	sub.StartPool(ctx, cfg.Submitter.Concurrency)

	trk := tracker.New(repo, bus, logger)
	go func() {
		if err := trk.Start(ctx); err != nil {
			logger.Error("tracker stopped", zap.Error(err))
		}
	}()

	// 5. HTTP surface
	svc := service.NewWorkflowService(repo, queue, logger)
	workflowHandler := handler.NewWorkflowHandler(svc, logger)
	router := api.NewRouter(workflowHandler)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
