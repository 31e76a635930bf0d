package service

import (
	"context"
	"fmt"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"go.uber.org/zap"
)

// Stdout используется без токена и всё пишет в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Broadcast(_ context.Context, sig models.Signal) int {
	logger.With(
		zap.String("symbol", sig.Symbol),
		zap.String("direction", string(sig.Direction)),
		zap.Int("confidence", sig.Confidence),
		zap.Float64("entry", sig.Entry),
		zap.Float64("stop_loss", sig.StopLoss),
		zap.Float64("take_profit", sig.TakeProfit),
	).Info("[SIGNAL] " + formatSignal(sig))
	return 1
}

func (s *Stdout) SendService(_ context.Context, format string, args ...any) {
	logger.Info("[SERVICE] %s", fmt.Sprintf(format, args...))
}
