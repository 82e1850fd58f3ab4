package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chest-rewards-api/internal/cache"
	"chest-rewards-api/internal/chest"
	"chest-rewards-api/internal/config"
	"chest-rewards-api/internal/database"
	"chest-rewards-api/internal/events"
	"chest-rewards-api/internal/handler"
	"chest-rewards-api/internal/logging"
	"chest-rewards-api/internal/middleware"
	"chest-rewards-api/internal/models"
	"chest-rewards-api/internal/service"
	"chest-rewards-api/internal/tracing"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	configFile := flag.String("config", "", "Path to a .json, .toml or .yaml config file")
	envFile := flag.String("env", ".env", "Path to a dotenv file (ignored if missing)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	catalog := chest.StockCatalog()
	if cfg.Chest.CatalogFile != "" {
		loaded, err := chest.LoadCatalogFile(cfg.Chest.CatalogFile)
		if err != nil {
			return err
		}
		catalog = loaded
		log.WithField("file", cfg.Chest.CatalogFile).Info("reward catalog loaded")
	} else {
		catalog.JackpotMaxGems = cfg.Chest.JackpotMaxGems
	}
	defaults := chest.DefaultSettings(catalog, cfg.Chest.CostTokens, models.PetValueTable{
		HugeToGems:    cfg.Chest.HugeToGems,
		TitanicToGems: cfg.Chest.TitanicToGems,
	})

	snap, err := newSnapshotter(cfg.Store)
	if err != nil {
		return err
	}
	store, err := database.Open(ctx, snap, defaults, log.WithField("component", "store"))
	if err != nil {
		snap.Close()
		return err
	}
	defer store.Close()

	if err := store.Seed(ctx, cfg.SeedUsers, time.Now()); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	tracer, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
		Version:     version,
	})
	if err != nil {
		return err
	}

	feedCache, closeCache := newFeedCache(ctx, cfg.Cache, log)
	defer closeCache()

	flags := service.DefaultFeatures(cfg.Features.MultiOpen, cfg.Features.PetConversion,
		cfg.Features.FeedCache, cfg.Features.EventHooks)
	// Subscribers always register; the event_hooks flag switches delivery at runtime.
	bus := events.NewManager(true, log.WithField("component", "events"))
	events.RegisterDefaults(bus, log.WithField("component", "audit"))

	svc, err := service.NewService(store, service.Options{
		Defaults:         catalog,
		Engine:           chest.NewEngine(chest.DefaultRNG()),
		Events:           bus,
		Features:         flags,
		FeedCache:        feedCache,
		Tracer:           tracer,
		Log:              log.WithField("component", "service"),
		SessionCacheSize: cfg.Security.SessionCacheSize,
	})
	if err != nil {
		return err
	}

	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
		Log:         log.WithField("component", "http"),
	})

	routerOpts := handler.RouterOptions{
		Log:            log.WithField("component", "http"),
		AllowedOrigins: cfg.AllowedOrigins(),
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
		defer limiter.Stop()
		routerOpts.RateLimiter = limiter
	}
	if cfg.Metrics.Enabled {
		routerOpts.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Tracing.Enabled {
		routerOpts.TracingService = cfg.Tracing.ServiceName
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           handler.NewRouter(h, svc, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":       server.Addr,
			"tls":        cfg.Server.EnableTLS,
			"store":      cfg.Store.Driver,
			"cache":      cfg.Cache.Driver,
			"rate_limit": cfg.RateLimit.Enabled,
		}).Info("starting server")

		var err error
		if cfg.Server.EnableTLS {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		bus.Shutdown()
		if terr := tracer.Shutdown(shutdownCtx); terr != nil {
			log.WithError(terr).Warn("failed to flush traces")
		}
		return err
	})

	return g.Wait()
}

func newSnapshotter(cfg config.StoreConfig) (database.Snapshotter, error) {
	switch cfg.Driver {
	case "file":
		return database.NewFileSnapshotter(cfg.Path)
	default:
		return database.NewSQLiteSnapshotter(cfg.Path)
	}
}

// newFeedCache falls back to the in-process cache when Redis is unreachable.
func newFeedCache(ctx context.Context, cfg config.CacheConfig, log *logrus.Logger) (*cache.FeedCache, func()) {
	ttl := time.Duration(cfg.FeedTTL) * time.Second
	var backend cache.Cache = cache.NewInMemoryCache()

	if cfg.Driver == "redis" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using in-memory feed cache")
		} else {
			backend = rc
		}
	}

	return cache.NewFeedCache(backend, ttl), func() {
		if err := backend.Close(); err != nil {
			log.WithError(err).Warn("failed to close cache")
		}
	}
}
