package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
)

const binanceMaxLimit = 1500

// Binance: свечи USDT-M фьючерсов через go-binance.
type Binance struct {
	client *futures.Client
}

func NewBinance(cfg config.MarketConfig) *Binance {
	c := futures.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		c.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Binance{client: c}
}

func (b *Binance) Name() string { return "binance" }

// binanceSymbol: "BTC-USDT-SWAP" -> "BTCUSDT".
func binanceSymbol(symbol string) string {
	s := strings.TrimSuffix(strings.ToUpper(symbol), "-SWAP")
	return strings.ReplaceAll(s, "-", "")
}

func (b *Binance) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	limit = min(limit, binanceMaxLimit)

	klines, err := b.client.NewKlinesService().
		Symbol(binanceSymbol(symbol)).
		Interval(strings.ToLower(interval)).
		Limit(limit).
		Do(ctx)
	if err != nil {
		if common.IsAPIError(err) {
			return nil, errors.Wrapf(ErrInvalidResponse, "binance klines %s %s: %v", symbol, interval, err)
		}
		return nil, errors.Wrapf(ErrNetwork, "binance klines %s %s: %v", symbol, interval, err)
	}

	out := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		cndl, ok := fromKline(k)
		if !ok {
			continue
		}
		out = append(out, cndl)
	}
	return out, nil
}

func fromKline(k *futures.Kline) (models.Candle, bool) {
	if k == nil {
		return models.Candle{}, false
	}
	open, err1 := strconv.ParseFloat(k.Open, 64)
	high, err2 := strconv.ParseFloat(k.High, 64)
	low, err3 := strconv.ParseFloat(k.Low, 64)
	closep, err4 := strconv.ParseFloat(k.Close, 64)
	vol, err5 := strconv.ParseFloat(k.Volume, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || closep <= 0 {
		return models.Candle{}, false
	}
	return models.Candle{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closep,
		Volume: vol,
	}, true
}
