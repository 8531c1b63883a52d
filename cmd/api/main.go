package main

import (
	"context"

	"github.com/LJTian/LiveNewsBoard/internal/app"
	"github.com/LJTian/LiveNewsBoard/internal/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		app.CreateApp(),
		fx.Invoke(run),
	).Run()
}

func run(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().
				Str("port", cfg.AppPort).
				Int("min_items", cfg.MinItems).
				Int("max_items", cfg.MaxItems).
				Bool("quote_cache", cfg.CacheEnabled()).
				Msg("live news board starting")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("live news board stopped")
			return nil
		},
	})
}
