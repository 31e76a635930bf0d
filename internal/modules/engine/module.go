package engine

import (
	"signal_bot/internal/modules/engine/service"
	market "signal_bot/internal/modules/market/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			// market.Provider -> service.CandleFetcher
			func(p market.Provider) service.CandleFetcher { return p },
			service.NewEngine,
		),
	)
}
