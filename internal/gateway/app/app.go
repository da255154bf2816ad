package app

import (
	"context"
	"fmt"
	"log"

	"safewatch/internal/alertparse"
	"safewatch/internal/gateway/config"
	"safewatch/internal/gateway/feed"
	"safewatch/internal/gateway/handler"
	"safewatch/internal/gateway/middleware"
	"safewatch/internal/gateway/server"
	"safewatch/internal/geolocation"
	"safewatch/internal/incident"
	"safewatch/internal/llm"
	"safewatch/internal/ratelimit"
)

type App struct {
	server *server.Server
	stores *gatewayStores
	llm    llm.Client
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(context.Background(), cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.Default()

	stores, err := initStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := NewLLMClient(ctx, cfg.LLM, logger)
	if err != nil {
		stores.close()
		return nil, err
	}
	recovery, err := alertparse.RecoveryByName(cfg.AlertRecovery)
	if err != nil {
		stores.close()
		return nil, err
	}

	hub := feed.NewHub(logger)
	deps := handler.Deps{
		Geo: geolocation.New(geolocation.Config{
			LLM:    client,
			Store:  stores.artifact,
			Logger: logger,
		}),
		Incidents: stores.incidents,
		Reports:   stores.reports,
		Logger:    logger,
	}
	if client != nil {
		pipeline, err := incident.New(incident.Config{
			Searcher:    NewSearcher(cfg.Search, logger),
			LLM:         client,
			Parser:      alertparse.New(recovery),
			Incidents:   stores.incidents,
			Reports:     stores.reports,
			Notifier:    hub,
			Logger:      logger,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
		if err != nil {
			stores.close()
			return nil, err
		}
		deps.Alerts = pipeline
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window > 0 {
		limiter, err = ratelimit.NewLimiter(stores.rateLimit, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err != nil {
			stores.close()
			return nil, err
		}
	}

	// Routing & Server
	h := handler.New(deps)
	router := server.NewRouter(h, hub, limiterOrNil(limiter), logger)
	srv := server.New(cfg.Port, router)

	return &App{server: srv, stores: stores, llm: client}, nil
}

// limiterOrNil keeps a nil *Limiter from becoming a non-nil interface.
func limiterOrNil(l *ratelimit.Limiter) middleware.Limiter {
	if l == nil {
		return nil
	}
	return l
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if cerr := a.stores.close(); err == nil {
		err = cerr
	}
	return err
}
