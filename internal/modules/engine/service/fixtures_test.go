package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// trendSeries: шаг step на свечу, диапазон 100, open = предыдущий close.
func trendSeries(n int, start, step, volume float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		c := start + step*float64(i)
		out[i] = models.Candle{
			Time:   base.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c - step,
			High:   c + 50,
			Low:    c - 50,
			Close:  c,
			Volume: volume,
		}
	}
	return out
}

// withLast заменяет последнюю свечу движением move от предыдущего close.
func withLast(cs []models.Candle, move, volume float64) []models.Candle {
	out := append([]models.Candle(nil), cs...)
	n := len(out)
	prev := out[n-2].Close
	c := prev + move
	out[n-1] = models.Candle{
		Time:   out[n-1].Time,
		Open:   prev,
		High:   max(prev, c) + 50,
		Low:    min(prev, c) - 50,
		Close:  c,
		Volume: volume,
	}
	return out
}

// bullishSetup: middle ~50000 c ATR=100 и всплеском объёма, lowest с сильным импульсом вверх.
func bullishSetup() (higher, middle, lowest []models.Candle) {
	higher = trendSeries(60, 49000, 10, 100)
	middle = trendSeries(60, 49410, 10, 100)
	middle[len(middle)-1].Volume = 1000
	lowest = withLast(trendSeries(60, 49410, 10, 100), 40, 1000)
	return
}

type fetchResult struct {
	candles []models.Candle
	err     error
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string]fetchResult
	calls []string
}

func (f *fakeFetcher) GetCandles(_ context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, interval)
	r, ok := f.data[interval]
	if !ok {
		return nil, errors.New("unknown interval")
	}
	return r.candles, r.err
}

func newTestEngine(data map[string]fetchResult) (*Engine, *fakeFetcher) {
	f := &fakeFetcher{data: data}
	return NewEngine(config.DefaultEngineConfig(), f), f
}
