package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	storage "signal_bot/internal/modules/storage/service"
	"signal_bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "Я присылаю торговые сигналы по нескольким таймфреймам.\n\n" +
	"/start - подписаться на сигналы\n" +
	"/stop - отписаться\n" +
	"/signal BTC - разобрать монету прямо сейчас\n" +
	"/coins - список отслеживаемых монет\n\n" +
	"Сигналы - только рекомендация, сделки бот не открывает."

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID

	var err error
	switch msg.Command() {
	case "start":
		err = t.handleStart(ctx, chatID, username(msg))
	case "stop":
		err = t.handleStop(ctx, chatID)
	case "signal":
		go t.handleSignal(ctx, chatID, msg.CommandArguments())
	case "coins":
		err = t.handleCoins(ctx, chatID)
	default:
		_, err = t.Send(ctx, chatID, helpText)
	}
	if err != nil {
		logger.Error("[TG] /%s from %d: %v", msg.Command(), chatID, err)
	}
}

func username(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	if msg.From.UserName != "" {
		return msg.From.UserName
	}
	return strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
}

func (t *Telegram) handleStart(ctx context.Context, chatID int64, name string) error {
	if err := t.subs.Subscribe(ctx, chatID, name); err != nil {
		_, _ = t.Send(ctx, chatID, "⚠️ Не удалось оформить подписку, попробуй позже.")
		return fmt.Errorf("subscribe: %w", err)
	}
	_, err := t.Send(ctx, chatID, "✅ Подписка оформлена.\n\n"+helpText)
	return err
}

func (t *Telegram) handleStop(ctx context.Context, chatID int64) error {
	err := t.subs.Unsubscribe(ctx, chatID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		_, err = t.Send(ctx, chatID, "Ты и так не подписан. /start - подписаться.")
		return err
	case err != nil:
		return fmt.Errorf("unsubscribe: %w", err)
	}
	_, err = t.Send(ctx, chatID, "🛑 Подписка отключена. /start - вернуть.")
	return err
}

func (t *Telegram) handleSignal(ctx context.Context, chatID int64, args string) {
	symbol := normalizeSymbol(args)
	if symbol == "" {
		_, _ = t.Send(ctx, chatID, "Укажи монету: /signal BTC или /signal BTC-USDT-SWAP")
		return
	}

	actx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()
	sig := t.engine.Analyze(actx, symbol)

	msg := tgbotapi.NewMessage(chatID, formatSignal(sig))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.SendMessage(ctx, msg); err != nil {
		logger.Error("[TG] /signal %s to %d: %v", symbol, chatID, err)
	}
}

func (t *Telegram) handleCoins(ctx context.Context, chatID int64) error {
	coins := t.coins.Symbols()
	if len(coins) == 0 {
		_, err := t.Send(ctx, chatID, "📭 Список монет пока пуст.")
		return err
	}
	_, err := t.Send(ctx, chatID, fmt.Sprintf("📊 Отслеживаю %d:\n%s", len(coins), strings.Join(coins, "\n")))
	return err
}
