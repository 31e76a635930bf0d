package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
)

// Интеграционный тест: нужен TEST_DATABASE_DSN.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
	if err != nil {
		t.Fatal(err)
	}
	m := db.NewPgTxManager(pool)
	t.Cleanup(m.Close)

	p := NewPostgres(m)
	if err := p.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Conn().Exec(ctx, "TRUNCATE subscribers, signals"); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPostgresSubscribers(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	if err := p.Subscribe(ctx, 100, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := p.Subscribe(ctx, 100, "alice2"); err != nil {
		t.Fatal(err)
	}
	s, err := p.Get(ctx, 100)
	if err != nil || !s.Active || s.Username != "alice2" {
		t.Fatalf("unexpected subscriber %+v, %v", s, err)
	}

	if err := p.Unsubscribe(ctx, 100); err != nil {
		t.Fatal(err)
	}
	if err := p.Unsubscribe(ctx, 100); !errors.Is(err, ErrNotFound) {
		t.Errorf("second unsubscribe: expected ErrNotFound, got %v", err)
	}
	active, err := p.Active(ctx)
	if err != nil || len(active) != 0 {
		t.Errorf("expected no active subscribers, got %+v %v", active, err)
	}
	if _, err := p.Get(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresSignals(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()

	sig := models.Signal{
		Symbol:     "BTC-USDT-SWAP",
		Direction:  models.DirectionLong,
		Confidence: 93,
		Entry:      50030,
		StopLoss:   49930,
		TakeProfit: 50330,
		CandleTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Diagnostics: &models.Diagnostics{
			Multiplier:    3,
			Probabilities: map[string]float64{"1": 0.98, "3": 0.98},
			Rules:         []string{"higher_trend"},
		},
	}
	id, err := p.Save(ctx, sig)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Save(ctx, models.Signal{Symbol: "ETH-USDT-SWAP", Direction: models.DirectionNeutral, Reason: "no clear multi-timeframe bias"}); err != nil {
		t.Fatal(err)
	}

	recs, err := p.Recent(ctx, "BTC-USDT-SWAP", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != id {
		t.Fatalf("unexpected records %+v", recs)
	}
	got := recs[0].Signal
	if got.Entry != sig.Entry || !got.CandleTime.Equal(sig.CandleTime) || got.Diagnostics == nil || got.Diagnostics.Multiplier != 3 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	all, _ := p.Recent(ctx, "", 5)
	if len(all) != 2 || all[0].Signal.Diagnostics != nil {
		t.Errorf("unexpected history %+v", all)
	}
}
