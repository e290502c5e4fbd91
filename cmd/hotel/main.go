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

	"infinityhotel/internal/api"
	"infinityhotel/internal/audit"
	"infinityhotel/internal/auth"
	"infinityhotel/internal/backup"
	"infinityhotel/internal/config"
	"infinityhotel/internal/engine"
	"infinityhotel/internal/events"
	"infinityhotel/internal/metrics"
	"infinityhotel/internal/repository"
	"infinityhotel/internal/repository/jsonfile"
	"infinityhotel/internal/repository/redisstore"
	"infinityhotel/internal/repository/sqlite"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	configPath := os.Getenv("HOTEL_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg)

	store, err := openStorage(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage error")
	}
	defer store.Close()

	bus := events.NewBus()
	eng := engine.New(store, &logger, engine.WithEvents(bus))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.RoomsSeed != "" {
		if err := seedRooms(ctx, eng, cfg.Storage.RoomsSeed, &logger); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Storage.RoomsSeed).Msg("seed rooms error")
		}
	}

	exporter := audit.NewExporter(eng)

	var limiter *api.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = api.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	if err := config.Watch(ctx, configPath, 30*time.Second, func(updated *config.Config) {
		if limiter != nil {
			limiter.SetLimits(updated.RateLimit.RequestsPerSecond, updated.RateLimit.Burst)
		}
		if level, err := zerolog.ParseLevel(updated.Log.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		logger.Info().
			Float64("rate_per_second", updated.RateLimit.RequestsPerSecond).
			Int("rate_burst", updated.RateLimit.Burst).
			Str("log_level", updated.Log.Level).
			Msg("Config reloaded")
	}); err != nil {
		logger.Warn().Err(err).Msg("config watcher disabled")
	}

	snap, ext := backupSource(store)
	backups := backup.NewService(cfg.Backup, snap, ext, exporter, &logger)
	if err := backups.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start backup service error")
	}

	go serveAux(ctx, "health", cfg.Monitoring.HealthCheckPort, healthHandler(ctx, eng), &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		metrics.Subscribe(bus)
		go serveAux(ctx, "metrics", cfg.Monitoring.PrometheusPort, metricsHandler(), &logger)
	}

	authn := auth.NewService(cfg.Auth.AdminUser, cfg.Auth.AdminPasswordHash, cfg.Auth.JWTSecret, cfg.TokenTTL())
	server := api.NewServer(eng, authn, &logger, api.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Limiter:           limiter,
		Exporter:          exporter,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().
		Str("address", cfg.Server.Address).
		Str("driver", cfg.Storage.Driver).
		Msg("Hotel API started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("api server error")
	}

	backups.Stop()
	logger.Info().Msg("Hotel API stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Format == "json" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

func openStorage(cfg *config.Config, logger *zerolog.Logger) (repository.Repository, error) {
	switch cfg.Storage.Driver {
	case config.DriverJSON:
		s, err := jsonfile.Open(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Address, err)
		}
		logger.Info().Str("address", cfg.Redis.Address).Str("prefix", cfg.Redis.Prefix).Msg("Redis storage connected")
		return redisstore.New(rdb, cfg.Redis.Prefix), nil
	default:
		s, err := sqlite.Open(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// backupSource returns the file snapshotter for stores kept on local disk.
// Redis data is archived through the spreadsheet export only.
func backupSource(store repository.Repository) (backup.Snapshotter, string) {
	switch s := store.(type) {
	case *sqlite.Store:
		return s, ".db"
	case *jsonfile.Store:
		return s, ".json"
	default:
		return nil, ""
	}
}

func seedRooms(ctx context.Context, eng *engine.Engine, path string, logger *zerolog.Logger) error {
	seed, err := config.LoadRoomsSeed(path)
	if err != nil {
		return err
	}
	rooms := make([]engine.RoomInput, 0, len(seed.Rooms))
	for _, r := range seed.Rooms {
		rooms = append(rooms, engine.RoomInput{Number: r.Number, Type: r.Type, Price: r.Price, InService: r.InService})
	}
	created, err := eng.SeedRooms(ctx, rooms)
	if err != nil {
		return err
	}
	logger.Info().Int("declared", len(rooms)).Int("created", created).Msg("Rooms seeded")
	return nil
}

func healthHandler(ctx context.Context, eng *engine.Engine) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := eng.Ping(ctxPing); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	})
	return mux
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// serveAux runs a side server on port until ctx is done.
func serveAux(ctx context.Context, name string, port int, h http.Handler, logger *zerolog.Logger) {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Str("server", name).Int("port", port).Msg("Auxiliary server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("auxiliary server error")
	}
}
