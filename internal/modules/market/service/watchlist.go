package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type okxTicker struct {
	InstType string `json:"instType"`
	InstID   string `json:"instId"`
	Last     string `json:"last"`
	High24h  string `json:"high24h"`
	Low24h   string `json:"low24h"`
}

// TopVolatile: n USDT-perp SWAP инструментов с наибольшим (high24h-low24h)/last.
func (c *OKX) TopVolatile(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	tickers, err := getOKX[[]okxTicker](ctx, c.http, c.baseURL+"/api/v5/market/tickers?instType=SWAP")
	if err != nil {
		return nil, errors.WithMessage(err, "okx tickers")
	}

	type rec struct {
		sym   string
		score float64
	}

	arr := make([]rec, 0, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.InstID, "-USDT-SWAP") {
			continue
		}

		last, err1 := strconv.ParseFloat(t.Last, 64)
		high, err2 := strconv.ParseFloat(t.High24h, 64)
		low, err3 := strconv.ParseFloat(t.Low24h, 64)
		if err1 != nil || err2 != nil || err3 != nil || last <= 0 {
			continue
		}
		range24 := high - low
		if range24 <= 0 {
			continue
		}
		arr = append(arr, rec{sym: t.InstID, score: range24 / last})
	}

	sort.SliceStable(arr, func(i, j int) bool { return arr[i].score > arr[j].score })
	n = min(n, len(arr))
	res := make([]string, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, arr[i].sym)
	}
	return res, nil
}
