package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mccayce/qboard/internal/config"
	"github.com/mccayce/qboard/internal/db"
	routes "github.com/mccayce/qboard/internal/http"
	"github.com/mccayce/qboard/internal/logging"
	"github.com/mccayce/qboard/internal/nocodb"
	"github.com/mccayce/qboard/internal/store"
)

func main() {
	// Production sets env vars directly, so a missing .env is fine.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if envErr != nil {
		logger.Info("no .env file found, reading from environment")
	}

	table, err := openTable(cfg, logger)
	if err != nil {
		logger.Fatal("open record store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	env := &routes.Env{Questions: store.NewQuestions(table), Log: logger}
	routes.SetupRoutes(router, env, routes.RouteOptions{
		CORSOrigin:  cfg.CORSOrigin,
		SubmitEvery: cfg.SubmitEvery,
		Context:     ctx,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server exiting")
}

func openTable(cfg config.AppConfig, logger *zap.Logger) (store.Table, error) {
	switch cfg.Backend {
	case config.BackendSQL:
		conn, err := db.Open(cfg.DatabaseURL, logger, &db.QuestionRow{})
		if err != nil {
			return nil, err
		}
		return db.NewTable(conn), nil
	default:
		if cfg.Noco.Token == "" {
			logger.Warn("NOCO_TOKEN not set; store calls will fail with noco_token_missing")
		}
		logger.Info("using nocodb",
			zap.String("url", cfg.Noco.URL),
			zap.String("base_id", cfg.Noco.BaseID),
			zap.String("table_id", cfg.Noco.TableID))
		return nocodb.New(cfg.Noco.URL, cfg.Noco.TableID, cfg.Noco.Token, nocodb.WithLogger(logger)), nil
	}
}
