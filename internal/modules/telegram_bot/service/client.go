package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	storage "signal_bot/internal/modules/storage/service"
	"signal_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier: канал доставки сигналов.
type Notifier interface {
	Broadcast(ctx context.Context, sig models.Signal) int
	SendService(ctx context.Context, format string, args ...any)
}

// Analyzer: движок сигналов для /signal.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) models.Signal
}

// Watchlist: текущий список монет для /coins.
type Watchlist interface {
	Symbols() []string
}

// botAPI: часть *tgbot.BotAPI, которой пользуется сервис.
type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	Request(c tgbot.Chattable) (*tgbot.APIResponse, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

const analyzeTimeout = 30 * time.Second

// Telegram
type Telegram struct {
	bot     botAPI
	adminID int64
	subs    storage.SubscriberStore
	engine  Analyzer
	coins   Watchlist

	sleep func(ctx context.Context, d time.Duration) error
}

func NewTelegram(
	cfg *config.Config,
	bot botAPI,
	subs storage.SubscriberStore,
	engine Analyzer,
	coins Watchlist,
) *Telegram {
	return &Telegram{
		bot:     bot,
		adminID: cfg.Telegram.AdminChatID,
		subs:    subs,
		engine:  engine,
		coins:   coins,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.SendMessage(ctx, tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendMessage(_ context.Context, message tgbot.MessageConfig) (tgbot.Message, error) {
	return t.bot.Send(message)
}

// SendService: служебные сообщения в админский чат.
func (t *Telegram) SendService(ctx context.Context, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	logger.Info("[TG] service: %s", text)
	if t.adminID == 0 {
		return
	}
	if _, err := t.Send(ctx, t.adminID, text); err != nil {
		logger.Warn("[TG] service message failed: %v", err)
	}
}

// Broadcast рассылает сигнал активным подписчикам и возвращает число доставок.
// На 403 подписчик отключается (бот заблокирован), на 429 один повтор через retry_after.
func (t *Telegram) Broadcast(ctx context.Context, sig models.Signal) int {
	subs, err := t.subs.Active(ctx)
	if err != nil {
		logger.Error("[TG] active subscribers: %v", err)
		return 0
	}

	text := formatSignal(sig)
	sent := 0
	for _, s := range subs {
		if ctx.Err() != nil {
			break
		}
		if err := t.deliver(ctx, s.ChatID, text); err != nil {
			logger.With(zap.Int64("chat_id", s.ChatID), zap.Error(err)).Warn("[TG] delivery failed")
			continue
		}
		sent++
	}
	logger.Info("[TG] %s %s delivered to %d/%d", sig.Symbol, sig.Direction, sent, len(subs))
	return sent
}

func (t *Telegram) deliver(ctx context.Context, chatID int64, text string) error {
	msg := tgbot.NewMessage(chatID, text)
	msg.ParseMode = tgbot.ModeMarkdown

	_, err := t.SendMessage(ctx, msg)
	var apiErr *tgbot.Error
	if err == nil || !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case http.StatusForbidden:
		if uerr := t.subs.Unsubscribe(ctx, chatID); uerr != nil {
			logger.Warn("[TG] deactivate %d: %v", chatID, uerr)
		}
		logger.Info("[TG] chat %d blocked the bot, subscriber deactivated", chatID)
		return err

	case http.StatusTooManyRequests:
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		if serr := t.sleep(ctx, wait); serr != nil {
			return serr
		}
		_, err = t.SendMessage(ctx, msg)
		return err
	}
	return err
}

// Start крутит long-polling до отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, upd)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}
