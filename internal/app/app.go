package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/LJTian/LiveNewsBoard/internal/aggregator"
	"github.com/LJTian/LiveNewsBoard/internal/api"
	"github.com/LJTian/LiveNewsBoard/internal/config"
	"github.com/LJTian/LiveNewsBoard/internal/logger"
	"github.com/LJTian/LiveNewsBoard/internal/metrics"
	"github.com/LJTian/LiveNewsBoard/internal/quote"
	"github.com/LJTian/LiveNewsBoard/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Core 聚合流程所需的全部依赖，不含 HTTP 服务和定时任务
func Core() fx.Option {
	return fx.Options(
		fx.Provide(config.Load),
		fx.Provide(NewLogger),
		fx.Provide(NewRegistry),
		fx.Provide(NewMetrics),
		fx.Provide(NewRedis),
		fx.Provide(NewQuoteProviders),
		fx.Provide(NewClassifier),
		fx.Provide(NewProcessor),
		fx.Provide(NewFetchers),
		fx.Provide(NewPipeline),
	)
}

// CreateApp 完整服务：Core + 报价缓存预热 + HTTP
func CreateApp() fx.Option {
	return fx.Options(
		Core(),
		fx.Provide(NewScheduler),
		fx.Provide(NewHTTPServer),
		fx.Invoke(func(*http.Server, *scheduler.Scheduler) {}),
	)
}

func NewLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.LogLevel)
}

// NewRegistry 独立注册表，避免测试和多次构建时重复注册
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

// NewScheduler 未启用 Redis 时没有需要预热的缓存，返回 nil
func NewScheduler(lc fx.Lifecycle, cfg *config.Config, cache *quote.Cache, log zerolog.Logger) (*scheduler.Scheduler, error) {
	if cache == nil {
		return nil, nil
	}
	s, err := scheduler.New([]scheduler.Job{
		scheduler.QuoteWarmJob(cfg.QuoteWarmCron, cache, cfg.PriceAsset),
	}, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
	return s, nil
}

func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, p *aggregator.Pipeline, reg *prometheus.Registry, log zerolog.Logger) (*http.Server, error) {
	engine, err := api.NewEngine(api.NewServer(p, reg, cfg.PageRefreshSeconds, log), cfg.GinMode)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// 先监听，端口被占用时启动直接失败
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info().Str("addr", srv.Addr).Msg("starting http server")
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server exit")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
	return srv, nil
}
