package app

import (
	"context"
	"fmt"

	"github.com/rl1809/serial-registry/internal/adapter/render"
	"github.com/rl1809/serial-registry/internal/adapter/storage"
	"github.com/rl1809/serial-registry/internal/core/payload"
	"github.com/rl1809/serial-registry/internal/core/service"
	"github.com/rl1809/serial-registry/internal/platform/config"
	"github.com/rl1809/serial-registry/internal/platform/logger"
)

// App holds the store and the services built on it. The server and the CLI
// both start from here.
type App struct {
	Log     *logger.Logger
	Cfg     *config.Config
	Store   *storage.Store
	Serials *service.SerialService
	Stats   *service.StatisticsService
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	encoder := payload.NewEncoder(cfg.Generation.VerifyBaseURL, render.NewLabelRenderer(render.DefaultQRSize))

	serials := service.NewSerialService(store, encoder, log, service.Options{
		MaxAttempts: cfg.Generation.MaxAttempts,
		Workers:     cfg.Generation.Workers,
		MaxQuantity: cfg.Generation.MaxQuantity,
		OpTimeout:   cfg.Store.OpTimeout,
	})
	stats := service.NewStatisticsService(store, log, service.StatisticsOptions{
		Location:    loc,
		TopProducts: cfg.Statistics.TopProducts,
		OpTimeout:   cfg.Store.OpTimeout,
	})

	return &App{
		Log:     log,
		Cfg:     cfg,
		Store:   store,
		Serials: serials,
		Stats:   stats,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("closing store", "error", err)
		}
	}
	a.Log.Sync()
}
