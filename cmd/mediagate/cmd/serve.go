package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iconidentify/mediagate/internal/api"
	"github.com/iconidentify/mediagate/internal/api/handler"
	"github.com/iconidentify/mediagate/internal/downloader"
	"github.com/iconidentify/mediagate/internal/service"
	"github.com/iconidentify/mediagate/internal/stream"
	"github.com/iconidentify/mediagate/internal/worker"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := globalConfig
	logger := appLogger

	logger.Info("starting mediagate",
		"version", Version,
		"build_time", BuildTime,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize dependencies
	artifacts, journal, err := openArtifacts(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer journal.Close()

	if _, err := artifacts.Recover(ctx); err != nil {
		logger.Warn("startup recovery failed", "error", err)
	}

	provider, err := newProvider(cfg.Provider)
	if err != nil {
		return err
	}

	thumbs := downloader.NewHTTPDownloader(cfg.Thumbnail)
	thumbs.SetLogger(logger)

	// Initialize services
	mediaSvc := service.NewMediaService(provider, artifacts, cfg.Provider, cfg.Storage, logger)
	responder := stream.NewResponder(artifacts, cfg.Stream.ChunkSize, logger)

	// Initialize handlers
	mediaHandler := handler.NewMediaHandler(mediaSvc, responder, logger)
	thumbnailHandler := handler.NewThumbnailHandler(thumbs, logger)
	healthHandler := handler.NewHealthHandler(artifacts, journal)

	// Setup router
	router := api.NewRouter(mediaHandler, thumbnailHandler, healthHandler, cfg.Server.AnalyzeTimeout, logger)

	// Start sweeper
	var sweeper *worker.Sweeper
	if cfg.Sweep.Enabled {
		sweeper = worker.NewSweeper(worker.Config{
			Interval: cfg.Sweep.Interval,
			MaxAge:   cfg.Sweep.MaxAge,
		}, artifacts, logger)
		sweeper.Start()
	}

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	}

	logger.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sweeper != nil {
		if err := sweeper.Stop(10 * time.Second); err != nil {
			logger.Error("sweeper shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete", "artifacts", artifacts.Stats())
	return nil
}
