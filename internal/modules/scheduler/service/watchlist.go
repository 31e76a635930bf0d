package service

import (
	"context"
	"sync"

	"signal_bot/pkg/logger"
)

// VolatileSource: биржевой список самых волатильных инструментов.
type VolatileSource interface {
	TopVolatile(ctx context.Context, n int) ([]string, error)
}

// Watchlist хранит монеты для сканирования из конфига или топ волатильных.
type Watchlist struct {
	fixed []string
	topN  int
	src   VolatileSource

	mu      sync.RWMutex
	symbols []string
}

func NewWatchlist(fixed []string, topN int, src VolatileSource) *Watchlist {
	w := &Watchlist{
		fixed: append([]string(nil), fixed...),
		topN:  topN,
		src:   src,
	}
	w.symbols = w.fixed
	return w
}

// Refresh перечитывает топ волатильных; при ошибке остаётся прежний список.
func (w *Watchlist) Refresh(ctx context.Context) error {
	if len(w.fixed) > 0 || w.src == nil {
		return nil
	}
	syms, err := w.src.TopVolatile(ctx, w.topN)
	if err != nil {
		return err
	}
	if len(syms) == 0 {
		logger.Warn("[SCAN] top volatile list is empty, keeping %d symbols", len(w.Symbols()))
		return nil
	}

	w.mu.Lock()
	w.symbols = syms
	w.mu.Unlock()
	return nil
}

func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.symbols...)
}

func (w *Watchlist) Contains(symbol string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, s := range w.symbols {
		if s == symbol {
			return true
		}
	}
	return false
}
