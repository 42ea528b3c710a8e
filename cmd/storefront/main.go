package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"grabbi/internal/api"
	"grabbi/internal/catalog"
	"grabbi/internal/config"
	"grabbi/internal/database"
	"grabbi/internal/events"
	"grabbi/internal/metrics"
	"grabbi/internal/repository"
	"grabbi/internal/service"
)

const staleSessionAge = 30 * 24 * time.Hour

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded .env")
	}

	cfg, err := config.Load(os.Getenv("STOREFRONT_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	loc, err := cfg.HoursLocation()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid store.hours_timezone")
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	sessions := newSessionRepository(cfg, db, rdb, &logger)

	source, err := newCatalog(ctx, cfg, rdb, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("catalog init error")
	}

	bus := events.NewEventBus()
	bus.Subscribe(events.Wildcard, func(ev events.Event) error {
		logger.Info().
			Str("event", ev.Type).
			Str("session_id", ev.SessionID).
			Str("franchise_id", ev.FranchiseID).
			Msg("Storefront event")
		return nil
	})

	svc := service.NewStorefront(source, sessions, db, bus, &logger, service.WithLocation(loc))

	health := map[string]api.HealthCheck{"database": db.PingContext}
	if rdb != nil {
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if client, ok := source.(*catalog.Client); ok {
		health["catalog"] = client.HealthCheck
	}

	srv := api.NewServer(api.Config{
		Storefront:     svc,
		Logger:         &logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RatePerSecond:  cfg.Server.RateLimitPerSecond,
		RateBurst:      cfg.Server.RateLimitBurst,
		Health:         health,
	})

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backups := database.NewBackupService(db, database.BackupConfig{
			Dir:       cfg.Backup.Path,
			Interval:  cfg.BackupInterval(),
			Retention: time.Duration(cfg.Backup.RetentionDays) * 24 * time.Hour,
		}, logger)
		go backups.Start(ctx)
	}

	go startSessionCleanup(ctx, db, &logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("addr", cfg.Server.Address).Str("hours_timezone", loc.String()).Msg("Storefront started")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("http server error")
	}
	logger.Info().Msg("Storefront stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Pretty {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(output)
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// newSessionRepository keeps sessions in redis with SQLite as the fallback,
// or in SQLite alone when redis is not configured.
func newSessionRepository(cfg *config.Config, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) repository.SessionRepository {
	sqlite := repository.NewSQLiteSessionRepository(db)
	if rdb == nil {
		return sqlite
	}
	primary := repository.NewRedisSessionRepository(rdb, cfg.SessionTTL())
	return repository.NewFailoverSessionRepository(primary, sqlite, logger)
}

// newCatalog returns the remote backend client when the API is enabled,
// otherwise the franchises.yaml catalog with hot reload.
func newCatalog(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zerolog.Logger) (catalog.Source, error) {
	if cfg.API.Enabled {
		client := catalog.NewClient(cfg.API.BaseURL, cfg.API.APIKey, cfg.APITimeout())
		if rdb != nil && cfg.API.CacheTTLSeconds > 0 {
			client.UseRedisCache(rdb, cfg.APICacheTTL())
		}
		client.UseRateLimit(cfg.API.RateLimitPerSecond, cfg.API.RateLimitBurst)
		logger.Info().Str("base_url", cfg.API.BaseURL).Msg("Using remote franchise catalog")
		return client, nil
	}

	static := catalog.NewStatic(nil)
	err := config.WatchFranchises(ctx, cfg.Catalog.Path, cfg.CatalogReloadInterval(), func(updated *config.FranchisesConfig, change config.CatalogChange) {
		static.Update(updated)
		logger.Info().
			Str("catalog", updated.String()).
			Strs("added", change.Added).
			Strs("removed", change.Removed).
			Strs("hours_changed", change.HoursChanged).
			Strs("updated", change.Updated).
			Msg("Franchise catalog loaded")
	})
	if err != nil {
		return nil, fmt.Errorf("load franchise catalog: %w", err)
	}
	return static, nil
}

func startSessionCleanup(ctx context.Context, db *database.DB, logger *zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.DeleteStaleSessions(ctx, staleSessionAge)
			if err != nil {
				logger.Error().Err(err).Msg("stale session cleanup failed")
			} else if n > 0 {
				logger.Info().Int64("deleted", n).Msg("Deleted stale sessions")
			}
		}
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
