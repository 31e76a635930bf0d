package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"signal_bot/internal/modules/config"
	engine "signal_bot/internal/modules/engine/service"
	"signal_bot/internal/modules/health/service"
	market "signal_bot/internal/modules/market/service"
	"signal_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	return Config{Addr: fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort)}
}

// NewCacheStats достаёт счётчики, если провайдер обёрнут кэшем.
func NewCacheStats(p market.Provider) CacheStats {
	if s, ok := p.(CacheStats); ok {
		return s
	}
	return nil
}

func RunHTTP(lc fx.Lifecycle, cfg Config, router *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			logger.Info("[HTTP] listening on %s", cfg.Addr)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("[HTTP] serve: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	gin.SetMode(gin.ReleaseMode)
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			func(e *engine.Engine) Analyzer { return e },
			NewCacheStats,
			NewRouter,
		),
		fx.Invoke(RunHTTP),
	)
}
