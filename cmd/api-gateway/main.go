package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gradadmin-api/api/swagger"
	"github.com/noah-isme/gradadmin-api/internal/app"
	"github.com/noah-isme/gradadmin-api/internal/handler"
	"github.com/noah-isme/gradadmin-api/internal/middleware"
	"github.com/noah-isme/gradadmin-api/pkg/cache"
	"github.com/noah-isme/gradadmin-api/pkg/config"
	"github.com/noah-isme/gradadmin-api/pkg/database"
	"github.com/noah-isme/gradadmin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradadmin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradadmin-api/pkg/middleware/requestid"
)

// @title Graduate Administration API
// @version 1.0
// @description Students, faculty, courses, jobs and grades of a graduate department.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, import jobs are tracked in memory", zap.Error(err))
		rdb = nil
	}

	application, err := app.New(cfg, db, rdb, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	application.StartWorkers(ctx)
	defer application.Close()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(application.Metrics))
	}

	handler.Mount(r, cfg.APIPrefix, application.Routes())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
