package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warebin/warebin/internal/app"
	"github.com/warebin/warebin/internal/bins"
	"github.com/warebin/warebin/internal/erp"
	"github.com/warebin/warebin/internal/observability"
	"github.com/warebin/warebin/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var store bins.Store
	switch cfg.DataSource {
	case app.SourceOData:
		store = erp.NewClient(erp.Config{
			BaseURL:  cfg.ERPBaseURL,
			Username: cfg.ERPUsername,
			Password: cfg.ERPPassword,
			Resource: cfg.ERPBinResource,
			Timeout:  cfg.ERPTimeout,
		})
		logger.Info("using remote erp data source", slog.String("base_url", cfg.ERPBaseURL))
	default:
		client, err := db.New(ctx, cfg.MongoURL)
		if err != nil {
			logger.Error("connect mongodb", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warn("mongodb disconnect", slog.Any("error", err))
			}
		}()
		store = bins.NewRepository(client, cfg.DBName)
		logger.Info("using local mongo data source", slog.String("db", cfg.DBName))
	}

	service := bins.NewService(store)
	handler := bins.NewHandler(logger, service)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		BinsHandler: handler,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
