package market

import (
	"context"
	"strings"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/market/service"
	"signal_bot/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// NewProvider выбирает биржу по market.provider и, если задан redis.addr,
// оборачивает её read-through кэшем.
func NewProvider(lc fx.Lifecycle, cfg *config.Config, okx *service.OKX) service.Provider {
	var p service.Provider = okx
	if strings.EqualFold(cfg.Market.Provider, "binance") {
		p = service.NewBinance(cfg.Market)
	}
	logger.Info("[MARKET] provider: %s", p.Name())

	if cfg.Redis.Addr == "" {
		return p
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				// кэш не обязателен: работаем в деградированном режиме
				logger.Warn("[CACHE] redis %s unavailable: %v", cfg.Redis.Addr, err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return service.NewCache(p, rdb, cfg.Redis.TTL)
}

// Module поднимает клиентов рынка.
func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			func(cfg *config.Config) *service.OKX { return service.NewOKX(cfg.Market) },
			NewProvider,
		),
	)
}
