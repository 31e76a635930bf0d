package telegram

import (
	"context"

	"signal_bot/internal/modules/config"
	engine "signal_bot/internal/modules/engine/service"
	scheduler "signal_bot/internal/modules/scheduler/service"
	storage "signal_bot/internal/modules/storage/service"
	"signal_bot/internal/modules/telegram_bot/service"
	"signal_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
)

// NewNotifier: без токена пишем в stdout, иначе Telegram с long-polling.
func NewNotifier(
	lc fx.Lifecycle,
	cfg *config.Config,
	subs storage.SubscriberStore,
	e *engine.Engine,
	coins *scheduler.Watchlist,
) (service.Notifier, error) {
	if cfg.Telegram.Token == "" {
		logger.Warn("[TG] telegram.token is empty, signals go to stdout")
		return service.NewStdout(), nil
	}

	bot, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	logger.Info("[TG] authorized as @%s", bot.Self.UserName)

	t := service.NewTelegram(cfg, bot, subs, e, coins)
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			t.Start(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			t.Stop()
			return nil
		},
	})
	return t, nil
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(NewNotifier),
	)
}
