package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/s0up4200/anilumina/bot"
	"github.com/s0up4200/anilumina/cache"
	"github.com/s0up4200/anilumina/config"
	"github.com/s0up4200/anilumina/filter"
	"github.com/s0up4200/anilumina/mal"
	"github.com/s0up4200/anilumina/metrics"
	"github.com/s0up4200/anilumina/paginate"
)

// app holds the components shared by serve and the CLI queries
type app struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    cache.Store
	memory   *cache.MemoryStore
	redis    *cache.RedisStore
	client   *mal.Client
	sessions *paginate.Manager
	filters  *filter.Manager
	service  *bot.Service
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	switch cfg.Cache.Backend {
	case "redis":
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		a.redis = store
		a.store = store
	default:
		a.memory = cache.NewMemoryStore()
		a.store = a.memory
	}

	client, err := mal.NewClient(cfg.MAL.ClientID, logger,
		mal.WithBaseURL(cfg.MAL.BaseURL),
		mal.WithTimeout(cfg.MAL.Timeout),
		mal.WithStore(a.store),
		mal.WithCacheTTL(cfg.MAL.CacheTTL),
		mal.WithMaxLimit(cfg.MAL.MaxLimit),
		mal.WithRateLimit(cfg.MAL.RequestsPerSecond, cfg.MAL.Burst),
		mal.WithCircuitBreaker(cfg.MAL.BreakerFailures, cfg.MAL.BreakerTimeout),
		mal.WithMetrics(a.metrics),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create MyAnimeList client: %w", err)
	}
	a.client = client

	a.sessions, err = paginate.NewManager(logger,
		paginate.WithTTL(cfg.Session.TTL),
		paginate.WithOwnerOnly(cfg.Session.OwnerOnly),
		paginate.WithCapacity(cfg.Session.Capacity),
		paginate.WithMetrics(a.metrics),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	a.filters = filter.NewManager()
	if err := a.filters.RegisterFilters(cfg.Filter.Presets); err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid filter preset: %w", err)
	}

	a.service = bot.NewService(a.client, a.sessions, a.filters, logger,
		bot.WithPageSize(cfg.Display.PageSize),
		bot.WithDefaultLimit(cfg.MAL.MaxLimit),
	)

	return a, nil
}

// Close releases the cache connection
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
