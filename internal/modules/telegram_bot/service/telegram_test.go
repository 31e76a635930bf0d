package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	storage "signal_bot/internal/modules/storage/service"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sentMsg struct {
	chatID int64
	text   string
}

type fakeBot struct {
	mu     sync.Mutex
	sent   []sentMsg
	calls  map[int64]int
	errs   map[int64][]error // очередь ошибок на чат
	notify chan sentMsg
}

func newFakeBot() *fakeBot {
	return &fakeBot{calls: map[int64]int{}, errs: map[int64][]error{}, notify: make(chan sentMsg, 16)}
}

func (b *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	m := c.(tgbot.MessageConfig)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls[m.ChatID]++
	if q := b.errs[m.ChatID]; len(q) > 0 {
		b.errs[m.ChatID] = q[1:]
		if q[0] != nil {
			return tgbot.Message{}, q[0]
		}
	}
	s := sentMsg{chatID: m.ChatID, text: m.Text}
	b.sent = append(b.sent, s)
	select {
	case b.notify <- s:
	default:
	}
	return tgbot.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(tgbot.Chattable) (*tgbot.APIResponse, error) {
	return &tgbot.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel {
	return make(chan tgbot.Update)
}

func (b *fakeBot) StopReceivingUpdates() {}

type fakeAnalyzer struct {
	mu      sync.Mutex
	symbols []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, symbol string) models.Signal {
	a.mu.Lock()
	a.symbols = append(a.symbols, symbol)
	a.mu.Unlock()
	return models.Signal{Symbol: symbol, Direction: models.DirectionNeutral, Confidence: 11, Reason: "no clear multi-timeframe bias"}
}

type staticCoins []string

func (c staticCoins) Symbols() []string { return c }

func newTestTelegram(t *testing.T) (*Telegram, *fakeBot, *storage.Memory, *[]time.Duration) {
	t.Helper()
	bot := newFakeBot()
	mem := storage.NewMemory()
	tg := NewTelegram(&config.Config{}, bot, mem, &fakeAnalyzer{}, staticCoins{"BTC-USDT-SWAP", "ETH-USDT-SWAP"})

	var slept []time.Duration
	tg.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return tg, bot, mem, &slept
}

func longSignal() models.Signal {
	return models.Signal{
		Symbol:       "BTC-USDT-SWAP",
		Direction:    models.DirectionLong,
		Confidence:   93,
		Entry:        50030,
		StopLoss:     49930,
		TakeProfit:   50330,
		RewardToRisk: 3,
		PositionSize: 0.1,
		Diagnostics:  &models.Diagnostics{Probability: 0.988, ATR: 100, Multiplier: 3},
	}
}

func TestBroadcastHandlesBlockedAndRateLimited(t *testing.T) {
	ctx := context.Background()
	tg, bot, mem, slept := newTestTelegram(t)
	for _, id := range []int64{1, 2, 3} {
		_ = mem.Subscribe(ctx, id, "")
	}

	bot.errs[2] = []error{&tgbot.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}}
	bot.errs[3] = []error{&tgbot.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbot.ResponseParameters{RetryAfter: 2}}}

	if got := tg.Broadcast(ctx, longSignal()); got != 2 {
		t.Errorf("expected 2 deliveries, got %d", got)
	}

	s, _ := mem.Get(ctx, 2)
	if s.Active {
		t.Error("blocked subscriber must be deactivated")
	}
	if bot.calls[3] != 2 {
		t.Errorf("rate-limited chat must be retried once, calls = %d", bot.calls[3])
	}
	if len(*slept) != 1 || (*slept)[0] != 2*time.Second {
		t.Errorf("expected a single 2s wait, got %v", *slept)
	}

	active, _ := mem.Active(ctx)
	if len(active) != 2 {
		t.Errorf("expected 2 active subscribers, got %d", len(active))
	}
}

func TestBroadcastRetriesOnlyOnce(t *testing.T) {
	ctx := context.Background()
	tg, bot, mem, _ := newTestTelegram(t)
	_ = mem.Subscribe(ctx, 7, "")

	limited := &tgbot.Error{Code: 429, ResponseParameters: tgbot.ResponseParameters{RetryAfter: 1}}
	bot.errs[7] = []error{limited, limited, limited}

	if got := tg.Broadcast(ctx, longSignal()); got != 0 {
		t.Errorf("expected no deliveries, got %d", got)
	}
	if bot.calls[7] != 2 {
		t.Errorf("expected exactly one retry, calls = %d", bot.calls[7])
	}
	if s, _ := mem.Get(ctx, 7); !s.Active {
		t.Error("rate limit must not deactivate the subscriber")
	}
}

func command(chatID int64, text string) tgbot.Update {
	cmd := strings.Fields(text)[0]
	return tgbot.Update{Message: &tgbot.Message{
		Text:     text,
		Chat:     &tgbot.Chat{ID: chatID},
		From:     &tgbot.User{UserName: "trader"},
		Entities: []tgbot.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	tg, bot, mem, _ := newTestTelegram(t)

	tg.handleUpdate(ctx, command(10, "/start"))
	s, err := mem.Get(ctx, 10)
	if err != nil || !s.Active || s.Username != "trader" {
		t.Fatalf("/start must subscribe, got %+v %v", s, err)
	}

	tg.handleUpdate(ctx, command(10, "/coins"))
	if last := bot.sent[len(bot.sent)-1]; !strings.Contains(last.text, "ETH-USDT-SWAP") {
		t.Errorf("/coins reply: %q", last.text)
	}

	tg.handleUpdate(ctx, command(10, "/stop"))
	if s, _ := mem.Get(ctx, 10); s.Active {
		t.Error("/stop must unsubscribe")
	}

	tg.handleUpdate(ctx, command(10, "/stop"))
	if last := bot.sent[len(bot.sent)-1]; last.chatID != 10 || !strings.Contains(last.text, "не подписан") {
		t.Errorf("repeated /stop: unexpected reply %+v", last)
	}

	tg.handleUpdate(ctx, command(11, "/stop"))
	if last := bot.sent[len(bot.sent)-1]; last.chatID != 11 || !strings.Contains(last.text, "не подписан") {
		t.Errorf("unexpected reply %+v", last)
	}
}

func TestSignalCommand(t *testing.T) {
	ctx := context.Background()
	tg, bot, _, _ := newTestTelegram(t)

	// вычищаем уведомления до команды
	for len(bot.notify) > 0 {
		<-bot.notify
	}
	tg.handleUpdate(ctx, command(5, "/signal eth"))

	select {
	case m := <-bot.notify:
		if m.chatID != 5 || !strings.Contains(m.text, "ETH-USDT-SWAP") || !strings.Contains(m.text, "NEUTRAL") {
			t.Errorf("unexpected reply %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply to /signal")
	}

	an := tg.engine.(*fakeAnalyzer)
	an.mu.Lock()
	defer an.mu.Unlock()
	if len(an.symbols) != 1 || an.symbols[0] != "ETH-USDT-SWAP" {
		t.Errorf("analyzer called with %v", an.symbols)
	}
}

func TestFormatSignal(t *testing.T) {
	text := formatSignal(longSignal())
	for _, want := range []string{"LONG", "BTC-USDT-SWAP", "93%", "50030.00", "49930.00", "50330.00", "3.00R"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted LONG signal lacks %q:\n%s", want, text)
		}
	}

	text = formatSignal(models.Signal{Symbol: "X", Direction: models.DirectionNoTrade, Reason: "invalid target ordering"})
	if !strings.Contains(text, "NO_TRADE") || !strings.Contains(text, "invalid target ordering") {
		t.Errorf("unexpected NO_TRADE text:\n%s", text)
	}
	if strings.Contains(text, "Вход") {
		t.Error("non-directional signal must not show levels")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := map[string]string{
		"btc":           "BTC-USDT-SWAP",
		" eth-usdt ":    "ETH-USDT-SWAP",
		"SOLUSDT":       "SOL-USDT-SWAP",
		"BTC-USDT-SWAP": "BTC-USDT-SWAP",
		"":              "",
		"doge extra":    "DOGE-USDT-SWAP",
	}
	for in, want := range tests {
		if got := normalizeSymbol(in); got != want {
			t.Errorf("normalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStdoutNotifier(t *testing.T) {
	s := NewStdout()
	if got := s.Broadcast(context.Background(), longSignal()); got != 1 {
		t.Errorf("stdout broadcast = %d", got)
	}
	s.SendService(context.Background(), "scan %d", 1)
}
