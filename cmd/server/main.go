// Command server exposes the prediction engine over HTTP
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrcode/glucopredict/internal/api"
	"github.com/mrcode/glucopredict/internal/app"
	"github.com/mrcode/glucopredict/internal/catalog"
	"github.com/mrcode/glucopredict/internal/config"
	"github.com/mrcode/glucopredict/internal/history"
	"github.com/mrcode/glucopredict/internal/logging"
	"github.com/mrcode/glucopredict/internal/models"
	"github.com/mrcode/glucopredict/internal/nightscout"
	"github.com/mrcode/glucopredict/internal/notifications"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, os.Stderr)
	slog.SetDefault(log)

	log.Info("starting glucose prediction server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"version", version,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := loadSettings(cfg.SettingsPath)
	if err != nil {
		log.Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	foods, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Error("failed to load food catalog", "error", err)
		os.Exit(1)
	}
	log.Info("food catalog loaded", "foods", foods.Len())

	repo, closeRepo, err := openRepository(ctx, cfg, settings, log)
	if err != nil {
		log.Error("failed to open history", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	opts := app.Options{
		Settings:   settings,
		Catalog:    foods,
		Repository: repo,
		Notifier:   notifications.NewManager(settings),
		Logger:     log,
	}
	// Only a configured client is assigned so the interface stays nil otherwise
	if client := nightscout.NewClientFromSettings(settings); client != nil {
		opts.Source = client
		log.Info("nightscout configured", "url", settings.NightscoutURL)
	}

	svc, err := app.New(ctx, opts)
	if err != nil {
		log.Error("failed to start service", "error", err)
		os.Exit(1)
	}

	if opts.Source != nil && cfg.SyncInterval > 0 {
		go svc.RunSync(ctx, time.Duration(cfg.SyncInterval)*time.Minute)
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(svc, log, api.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Version:        version,
		}),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server stopped gracefully")
}

func loadSettings(path string) (*models.Settings, error) {
	settings := models.DefaultSettings()
	if path == "" {
		return settings, settings.Load()
	}
	return settings, settings.LoadFrom(path)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// openRepository prefers PostgreSQL when DATABASE_URL is set and falls back to a JSON file
func openRepository(ctx context.Context, cfg *config.Config, settings *models.Settings, log *slog.Logger) (history.Repository, func(), error) {
	if cfg.Storage.DatabaseURL != "" {
		pool, err := history.ConnectPostgres(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using postgres history store")
		return history.NewPostgresRepository(pool), pool.Close, nil
	}

	path := cfg.Storage.HistoryPath
	if path == "" {
		path = settings.HistoryPath
	}
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return nil, nil, err
		}
	}
	log.Info("using file history store", "path", path)
	return history.NewFileRepository(path), func() {}, nil
}
