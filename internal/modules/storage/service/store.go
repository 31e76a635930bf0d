package service

import (
	"context"
	"errors"

	"signal_bot/internal/models"
)

var ErrNotFound = errors.New("storage: not found")

// SubscriberStore: чаты, подписанные на рассылку.
type SubscriberStore interface {
	Subscribe(ctx context.Context, chatID int64, username string) error
	Unsubscribe(ctx context.Context, chatID int64) error
	Get(ctx context.Context, chatID int64) (models.Subscriber, error)
	Active(ctx context.Context) ([]models.Subscriber, error)
}

// SignalLog: история выданных сигналов.
type SignalLog interface {
	Save(ctx context.Context, sig models.Signal) (string, error)
	Recent(ctx context.Context, symbol string, n int) ([]models.SignalRecord, error)
}
