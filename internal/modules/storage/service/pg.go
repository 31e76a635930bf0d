package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscribers (
	chat_id    BIGINT PRIMARY KEY,
	username   TEXT NOT NULL DEFAULT '',
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS signals (
	id             UUID PRIMARY KEY,
	symbol         TEXT NOT NULL,
	direction      TEXT NOT NULL,
	confidence     INT NOT NULL,
	entry          DOUBLE PRECISION NOT NULL DEFAULT 0,
	stop_loss      DOUBLE PRECISION NOT NULL DEFAULT 0,
	take_profit    DOUBLE PRECISION NOT NULL DEFAULT 0,
	reward_to_risk DOUBLE PRECISION NOT NULL DEFAULT 0,
	position_size  DOUBLE PRECISION NOT NULL DEFAULT 0,
	reason         TEXT NOT NULL DEFAULT '',
	candle_time    TIMESTAMPTZ,
	diagnostics    JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS signals_symbol_created_idx ON signals (symbol, created_at DESC);
`

const (
	subscribeSQL = `
INSERT INTO subscribers (chat_id, username, active)
VALUES ($1, $2, TRUE)
ON CONFLICT (chat_id) DO UPDATE SET username = EXCLUDED.username, active = TRUE`

	unsubscribeSQL = `UPDATE subscribers SET active = FALSE WHERE chat_id = $1 AND active`

	getSubscriberSQL = `SELECT chat_id, username, active, created_at FROM subscribers WHERE chat_id = $1`

	activeSubscribersSQL = `
SELECT chat_id, username, active, created_at FROM subscribers
WHERE active ORDER BY created_at, chat_id`

	insertSignalSQL = `
INSERT INTO signals (id, symbol, direction, confidence, entry, stop_loss, take_profit,
	reward_to_risk, position_size, reason, candle_time, diagnostics, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	recentSignalsSQL = `
SELECT id, symbol, direction, confidence, entry, stop_loss, take_profit,
	reward_to_risk, position_size, reason, candle_time, diagnostics, created_at
FROM signals
WHERE ($1 = '' OR symbol = $1)
ORDER BY created_at DESC
LIMIT $2`
)

// Postgres: хранилище подписчиков и истории на pgx.
type Postgres struct {
	db db.TxManager
}

func NewPostgres(m db.TxManager) *Postgres {
	return &Postgres{db: m}
}

// Migrate создаёт таблицы, если их нет.
func (p *Postgres) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Migrate: %w", err)
		}
	}()
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, schema)
		return err
	})
}

func (p *Postgres) Subscribe(ctx context.Context, chatID int64, username string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Subscribe: %w", err)
		}
	}()
	_, err = p.db.Conn().Exec(ctx, subscribeSQL, chatID, username)
	return err
}

func (p *Postgres) Unsubscribe(ctx context.Context, chatID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Unsubscribe: %w", err)
		}
	}()
	tag, err := p.db.Conn().Exec(ctx, unsubscribeSQL, chatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, chatID int64) (s models.Subscriber, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Get: %w", err)
		}
	}()
	err = p.db.Conn().QueryRow(ctx, getSubscriberSQL, chatID).
		Scan(&s.ChatID, &s.Username, &s.Active, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Subscriber{}, ErrNotFound
	}
	return s, err
}

func (p *Postgres) Active(ctx context.Context) (out []models.Subscriber, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Active: %w", err)
		}
	}()
	rows, err := p.db.Conn().Query(ctx, activeSubscribersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Subscriber
		if err = rows.Scan(&s.ChatID, &s.Username, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Save(ctx context.Context, sig models.Signal) (id string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Save: %w", err)
		}
	}()

	var diag []byte
	if sig.Diagnostics != nil {
		if diag, err = sonic.Marshal(sig.Diagnostics); err != nil {
			return "", err
		}
	}
	var candleTime *time.Time
	if !sig.CandleTime.IsZero() {
		candleTime = &sig.CandleTime
	}

	uid := uuid.New()
	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertSignalSQL,
			uid, sig.Symbol, string(sig.Direction), sig.Confidence,
			sig.Entry, sig.StopLoss, sig.TakeProfit, sig.RewardToRisk, sig.PositionSize,
			sig.Reason, candleTime, diag, time.Now().UTC(),
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return uid.String(), nil
}

func (p *Postgres) Recent(ctx context.Context, symbol string, n int) (out []models.SignalRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Recent: %w", err)
		}
	}()
	rows, err := p.db.Conn().Query(ctx, recentSignalsSQL, symbol, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec        models.SignalRecord
			uid        uuid.UUID
			direction  string
			candleTime *time.Time
			diag       []byte
		)
		s := &rec.Signal
		if err = rows.Scan(&uid, &s.Symbol, &direction, &s.Confidence,
			&s.Entry, &s.StopLoss, &s.TakeProfit, &s.RewardToRisk, &s.PositionSize,
			&s.Reason, &candleTime, &diag, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.ID = uid.String()
		s.Direction = models.Direction(direction)
		if candleTime != nil {
			s.CandleTime = candleTime.UTC()
		}
		if len(diag) > 0 {
			s.Diagnostics = &models.Diagnostics{}
			if err = sonic.Unmarshal(diag, s.Diagnostics); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
