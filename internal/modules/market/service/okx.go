package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	okxDefaultBaseURL = "https://www.okx.com"
	okxDefaultWSURL   = "wss://ws.okx.com:8443/ws/v5/business"
	okxMaxLimit       = 300
)

type OKX struct {
	baseURL  string
	wsURL    string
	http     *http.Client
	wsDialer *websocket.Dialer
}

func NewOKX(cfg config.MarketConfig) *OKX {
	c := &OKX{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		wsURL:    cfg.WSURL,
		http:     &http.Client{Timeout: cfg.Timeout},
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = okxDefaultBaseURL
	}
	if c.wsURL == "" {
		c.wsURL = okxDefaultWSURL
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = 10 * time.Second
	}
	return c
}

func (c *OKX) Name() string { return "okx" }

type okxEnvelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

// getOKX выполняет GET и раскладывает ответ OKX {code,msg,data}.
func getOKX[T any](ctx context.Context, hc *http.Client, u string) (T, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, errors.Wrapf(ErrInvalidResponse, "build request: %v", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return zero, errors.Wrapf(ErrNetwork, "GET %s: %v", u, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, errors.Wrapf(ErrNetwork, "read body: %v", err)
	}
	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return zero, errors.Wrapf(ErrNetwork, "http %d: %s", resp.StatusCode, string(b))
	case resp.StatusCode/100 != 2:
		return zero, errors.Wrapf(ErrInvalidResponse, "http %d: %s", resp.StatusCode, string(b))
	}

	var r okxEnvelope[T]
	if err := sonic.Unmarshal(b, &r); err != nil {
		return zero, errors.Wrapf(ErrInvalidResponse, "decode: %v", err)
	}
	if r.Code != "0" {
		return zero, errors.Wrapf(ErrInvalidResponse, "okx error: code=%s msg=%s", r.Code, r.Msg)
	}
	return r.Data, nil
}

// GetCandles отдаёт свечи по времени (OKX присылает newest-first).
// Битые строки пропускаются.
func (c *OKX) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	limit = min(limit, okxMaxLimit)

	bar, err := okxBar(interval)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidResponse, err.Error())
	}

	u := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(bar), limit,
	)
	rows, err := getOKX[[][]string](ctx, c.http, u)
	if err != nil {
		return nil, errors.WithMessagef(err, "okx candles %s %s", symbol, interval)
	}

	out := make([]models.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		cndl, ok := parseRow(rows[i])
		if !ok {
			continue
		}
		if n := len(out); n > 0 && !cndl.Time.After(out[n-1].Time) {
			continue
		}
		out = append(out, cndl)
	}
	return out, nil
}
