package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/opnlab/query-proxy/internal/config"
	"github.com/opnlab/query-proxy/internal/database"
	"github.com/opnlab/query-proxy/internal/executor"
	"github.com/opnlab/query-proxy/internal/handlers"
	"github.com/opnlab/query-proxy/internal/metrics"
	"github.com/opnlab/query-proxy/internal/store"
	"github.com/opnlab/query-proxy/internal/trace"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	cfg := config.Load()
	logger := newLogger(cfg)

	db, err := database.New(logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Database setup failed")
	}

	var archive *trace.Archive
	if cfg.ArchiveEnabled() {
		archive = trace.NewArchive(cfg)
		logger.WithField("bucket", cfg.S3Bucket).Info("Trace archive enabled")
	}

	entryStore := store.New(logger, db)
	exec := executor.New(logger)
	recorder := trace.NewRecorder(logger, db, archive)
	collector := metrics.NewCollector()

	handler := handlers.New(logger, cfg, entryStore, exec, recorder, collector)

	r := mux.NewRouter()
	r.Use(handlers.LoggingMiddleware(logger, db, collector))
	r.Use(handlers.RateLimitMiddleware(cfg))
	handlers.RegisterRoutes(r, handler)

	root := ghandlers.RecoveryHandler()(ghandlers.CORS(
		ghandlers.AllowedOrigins(cfg.CORSOrigins),
		ghandlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		ghandlers.AllowedHeaders([]string{"Content-Type"}),
	)(r))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go trace.NewRetention(logger, db, archive, cfg).Start(ctx)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
		}
	}()

	logger.WithField("addr", server.Addr).Info("Starting server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("Server failed")
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
