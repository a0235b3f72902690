package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	infraconfig "github.com/isabella232/tmg-ucm/infrastructure/config"
	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/infrastructure/profiling"
	infraredis "github.com/isabella232/tmg-ucm/infrastructure/redis"
	"github.com/isabella232/tmg-ucm/internal/api"
	"github.com/isabella232/tmg-ucm/internal/auth"
	"github.com/isabella232/tmg-ucm/internal/config"
	"github.com/isabella232/tmg-ucm/internal/content"
	"github.com/isabella232/tmg-ucm/internal/homepage"
	"github.com/isabella232/tmg-ucm/internal/metrics"
	"github.com/isabella232/tmg-ucm/internal/upstream"
)

// Redis connection timeout.
const redisConnectTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
		Service:     cfg.Service.Name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Start profilers (if enabled)
	if pprofSrv := profiling.StartPprofServer(cfg.Profiling, log); pprofSrv != nil {
		defer func() { _ = pprofSrv.Close() }()
	}
	profiler, err := profiling.StartPyroscope(cfg.Profiling, cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Pyroscope disabled", logger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	// Connect to Redis
	rdb, err := connectRedis(cfg, log)
	if err != nil {
		log.Error("Failed to connect to redis", logger.Error(err))
		return 1
	}
	defer func() { _ = rdb.Close() }()

	return runServer(cfg, log, rdb)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := infraconfig.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

func connectRedis(cfg *config.Config, log logger.Logger) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()

	rdb, err := infraredis.NewClient(ctx, infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Redis connected",
		logger.String("address", cfg.Redis.Address),
		logger.Int("db", cfg.Redis.DB),
	)
	return rdb, nil
}

// runServer creates all dependencies and serves until shutdown.
func runServer(cfg *config.Config, log logger.Logger, rdb *redis.Client) int {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Sessions
	revocations := auth.NewRedisRevocationStore(rdb, log)
	if cfg.Auth.JWTKey == "" {
		log.Warn("JWT_KEY is not set, logins will fail")
	}
	tokens := auth.NewTokenCodec(cfg.Auth.JWTKey, revocations, log)
	authn := auth.NewAuthenticator(auth.Credentials{
		UIPassword: cfg.Auth.UIPassword,
		UIKey:      cfg.Auth.UIKey,
	}, tokens)

	// Upstreams
	up := upstream.New(upstream.Config{
		ContentEndpoint: cfg.Upstream.ContentEndpoint,
		APIEndpoint:     cfg.Upstream.APIEndpoint,
		APIKey:          cfg.Upstream.APIKey,
		StaticUpstream:  cfg.Upstream.StaticUpstream,
		CacheGen:        cfg.Upstream.CacheGen,
		Timeout:         cfg.Upstream.Timeout,
	}, log, upstream.WithObserver(m))

	// Renderers
	rewriter, err := homepage.NewRewriter(cfg.Upstream.ContentEndpoint, log, homepage.WithHead(homepage.HeadOptions{
		SiteName:    cfg.Site.Name,
		TwitterSite: cfg.Site.TwitterSite,
	}))
	if err != nil {
		log.Error("Failed to build homepage rewriter", logger.Error(err))
		return 1
	}
	transformer := content.NewTransformer(cfg.Upstream.ContentEndpoint, log,
		content.WithParticleHost(cfg.Upstream.ParticleHost),
		content.WithFallbackHook(m.NodeFallback),
	)
	pages := content.NewPageRenderer(transformer, content.Site{
		Name:        cfg.Site.Name,
		TwitterSite: cfg.Site.TwitterSite,
	})

	handlers := api.NewHandlers(api.Dependencies{
		Upstream:      up,
		Authenticator: authn,
		Tokens:        tokens,
		Revocations:   revocations,
		Rewriter:      rewriter,
		Pages:         pages,
		Metrics:       m,
		Logger:        log,
	})

	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	server := api.NewServer(cfg, handlers, registry, ping, log)

	log.Info("Gateway starting",
		logger.String("address", cfg.Server.Address()),
		logger.String("content_endpoint", cfg.Upstream.ContentEndpoint),
		logger.String("version", cfg.Service.Version),
	)

	if err = server.RunWithGracefulShutdown(context.Background()); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Gateway exited cleanly")
	return 0
}
