package service

import (
	"context"

	"signal_bot/internal/models"

	"github.com/pkg/errors"
)

// Классы ошибок получения свечей.
var (
	ErrNetwork         = errors.New("market: network error")
	ErrInvalidResponse = errors.New("market: invalid response")
)

// Provider отдаёт свечи от старых к новым, без дублей.
type Provider interface {
	Name() string
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}
