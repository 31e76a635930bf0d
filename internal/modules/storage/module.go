package storage

import (
	"context"

	"signal_bot/internal/modules/storage/service"
	"signal_bot/pkg/db"
	"signal_bot/pkg/logger"

	"go.uber.org/fx"
)

type Stores struct {
	fx.Out

	Subscribers service.SubscriberStore
	Signals     service.SignalLog
}

// NewStores: Postgres, если пул поднят, иначе память процесса.
func NewStores(lc fx.Lifecycle, m *db.PgTxManager) Stores {
	if m == nil {
		mem := service.NewMemory()
		return Stores{Subscribers: mem, Signals: mem}
	}

	pg := service.NewPostgres(m)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("[PG] schema ready")
			return nil
		},
	})
	return Stores{Subscribers: pg, Signals: pg}
}

func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(NewStores),
	)
}
