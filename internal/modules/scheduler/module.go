package scheduler

import (
	"context"

	"signal_bot/internal/modules/config"
	engine "signal_bot/internal/modules/engine/service"
	health "signal_bot/internal/modules/health/service"
	market "signal_bot/internal/modules/market/service"
	"signal_bot/internal/modules/scheduler/service"
	storage "signal_bot/internal/modules/storage/service"
	telegram "signal_bot/internal/modules/telegram_bot/service"
	"signal_bot/pkg/logger"

	"go.uber.org/fx"
)

func NewWatchlist(cfg *config.Config, okx *market.OKX) *service.Watchlist {
	return service.NewWatchlist(cfg.Scheduler.Symbols, cfg.Scheduler.WatchTopN, okx)
}

func NewScheduler(
	cfg *config.Config,
	e *engine.Engine,
	n telegram.Notifier,
	history storage.SignalLog,
	coins *service.Watchlist,
	state *health.State,
) *service.Scheduler {
	return service.NewScheduler(cfg.Scheduler, e, n, history, coins, state)
}

// Run запускает периодический сканер и, если включено, поток закрытых свечей.
func Run(
	lc fx.Lifecycle,
	cfg *config.Config,
	s *service.Scheduler,
	coins *service.Watchlist,
	okx *market.OKX,
	state *health.State,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				if cfg.Market.StreamEnabled {
					startStream(runCtx, cfg, s, coins, okx, state)
				}
				s.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}

func startStream(
	ctx context.Context,
	cfg *config.Config,
	s *service.Scheduler,
	coins *service.Watchlist,
	okx *market.OKX,
	state *health.State,
) {
	if err := coins.Refresh(ctx); err != nil {
		logger.Warn("[WS] watchlist refresh: %v", err)
	}
	symbols := coins.Symbols()
	if len(symbols) == 0 {
		logger.Warn("[WS] watchlist is empty, stream disabled")
		return
	}

	tf := cfg.Engine.Lowest.Interval
	ch := okx.StreamClosedCandles(ctx, symbols, tf, state.SetWSConnected)
	logger.Info("[WS] streaming %d symbols on %s", len(symbols), tf)

	go func() {
		for cc := range ch {
			s.OnClosedCandle(ctx, cc.Symbol)
		}
	}()
}

func Module() fx.Option {
	return fx.Module("scheduler",
		fx.Provide(
			NewWatchlist,
			NewScheduler,
		),
		fx.Invoke(Run),
	)
}
