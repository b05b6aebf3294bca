// Package app wires configuration into the partner store, the analysis
// session and the dashboard service shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"partner-insights/internal/common/config"
	"partner-insights/internal/common/database"
	"partner-insights/internal/common/errors"
	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/observability"
	"partner-insights/internal/dashboard"
	"partner-insights/internal/dataset"
	"partner-insights/internal/partner"
	"partner-insights/internal/recommendation"

	"github.com/google/uuid"
)

type App struct {
	Config    *config.Config
	Store     *partner.Store
	Session   *recommendation.Session
	Service   *dashboard.Service
	SessionID string

	redis  *database.RedisClient
	logger logger.Logger
}

// Options overrides pieces of the wiring, mainly for tests.
type Options struct {
	Generator     recommendation.Generator
	Redis         *database.RedisClient
	Observability *observability.Observability
}

// New builds the application from cfg. A generator that cannot be created is
// logged and replaced by one that fails each call, so the dashboard keeps
// working and analyses come back as the fallback text.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	policy, err := partner.NewTierPolicy(cfg.Analysis.TierPolicy, cfg.Analysis.TopTierThreshold, cfg.Analysis.TopTierFraction)
	if err != nil {
		return nil, err
	}
	store := partner.NewStore(policy, log)

	gen := opts.Generator
	if gen == nil {
		gen, err = recommendation.NewGenerator(ctx, cfg.APIs.GenAI)
		if err != nil {
			log.Warn("Recommendation generator unavailable", map[string]interface{}{
				"provider": cfg.APIs.GenAI.Provider,
				"error":    err.Error(),
			})
		}
	}

	requester := recommendation.NewRequester(gen, recommendation.RequesterConfig{
		Provider:  cfg.APIs.GenAI.Provider,
		Timeout:   config.GetDuration(cfg.APIs.GenAI.Timeout),
		RateLimit: cfg.APIs.GenAI.RateLimit,
		Burst:     cfg.APIs.GenAI.Burst,
		Prompt: recommendation.PromptOptions{
			NetworkName: cfg.Analysis.NetworkName,
			City:        cfg.Analysis.City,
		},
	}, opts.Observability, log)

	a := &App{
		Config:    cfg,
		Store:     store,
		SessionID: uuid.NewString(),
		logger:    log,
	}

	var cache recommendation.Cache
	backend := cfg.Analysis.CacheBackend
	if backend == config.CacheBackendRedis {
		rdb := opts.Redis
		if rdb == nil {
			rdb = database.NewRedis(cfg.Database.Redis)
		}
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, errors.NewCacheUnavailableError(err)
		}
		a.redis = rdb
		cache = recommendation.NewRedisCache(rdb, a.SessionID, time.Duration(cfg.Analysis.CacheTTL)*time.Second)
	}
	a.Session = recommendation.NewSession(requester, cache, backend, log)

	a.Service = dashboard.NewService(store, a.Session, dashboard.Options{
		VitalThreshold: cfg.Analysis.VitalThreshold,
		Concurrency:    cfg.Analysis.Concurrency,
	}, log)

	if cfg.Dataset.Path != "" {
		if err := a.LoadDataset(cfg.Dataset.Path); err != nil {
			a.Close()
			return nil, err
		}
	}

	log.Info("Application initialised", map[string]interface{}{
		"tierPolicy":   policy.Name(),
		"cacheBackend": backend,
		"provider":     cfg.APIs.GenAI.Provider,
		"partners":     store.Len(),
		"sessionId":    a.SessionID,
	})
	return a, nil
}

// LoadDataset seeds the store from a JSON or YAML partner file.
func (a *App) LoadDataset(path string) error {
	partners, err := dataset.Load(path)
	if err != nil {
		return errors.NewDatasetLoadFailedError(path, err)
	}
	if err := a.Service.Seed(partners); err != nil {
		return errors.NewDatasetLoadFailedError(path, err)
	}
	return nil
}

// Ready checks the external dependencies the application holds.
func (a *App) Ready(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("analysis cache: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("Failed to close Redis client", map[string]interface{}{"error": err.Error()})
	}
}
