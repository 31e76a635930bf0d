package service

import (
	"context"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	pingEvery     = 20 * time.Second
	backoffStart  = time.Second
	backoffMax    = 30 * time.Second
	streamChanCap = 256
)

// ClosedCandle: закрытая свеча из WS.
type ClosedCandle struct {
	Symbol    string
	Timeframe string
	Candle    models.Candle
}

type wsFrame struct {
	Event string `json:"event"`
	Msg   string `json:"msg"`
	Arg   struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data [][]string `json:"data"`
}

// StreamClosedCandles: один WebSocket на таймфрейм с пачкой инструментов.
// Отдаёт только подтверждённые (закрытые) свечи. Переподключается с backoff,
// канал закрывается после отмены ctx. onConn сообщает о состоянии соединения.
func (c *OKX) StreamClosedCandles(
	ctx context.Context,
	symbols []string,
	timeframe string,
	onConn func(connected bool),
) <-chan ClosedCandle {
	ch := make(chan ClosedCandle, streamChanCap)
	if onConn == nil {
		onConn = func(bool) {}
	}

	go func() {
		defer close(ch)
		if len(symbols) == 0 {
			return
		}

		bar, err := okxBar(timeframe)
		if err != nil {
			logger.Error("[WS] %v", err)
			return
		}
		channel := "candle" + bar

		args := make([]map[string]string, 0, len(symbols))
		for _, id := range symbols {
			args = append(args, map[string]string{"channel": channel, "instId": id})
		}

		backoff := backoffStart
		for {
			connectedAt := time.Now()
			err := c.streamOnce(ctx, channel, timeframe, args, ch, onConn)
			onConn(false)
			if ctx.Err() != nil {
				return
			}
			if time.Since(connectedAt) > backoffMax {
				backoff = backoffStart
			}
			logger.Warn("[WS] %s: %v, reconnect in %s", channel, err, backoff)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, backoffMax)
		}
	}()

	return ch
}

func (c *OKX) streamOnce(
	ctx context.Context,
	channel, timeframe string,
	args []map[string]string,
	out chan<- ClosedCandle,
	onConn func(bool),
) error {
	logger.Info("[WS] connect %s %d symbols", channel, len(args))
	conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"op": "subscribe", "args": args}); err != nil {
		return err
	}
	onConn(true)

	// keepalive: OKX рвёт соединение без ping каждые <30s
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame wsFrame
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue // "pong"
		}
		if frame.Event == "error" {
			logger.Error("[WS] %s subscribe error: %s", channel, frame.Msg)
			continue
		}
		if frame.Arg.Channel != channel {
			continue
		}

		for _, row := range frame.Data {
			if !confirmed(row) {
				continue
			}
			cndl, ok := parseRow(row)
			if !ok {
				continue
			}
			select {
			case out <- ClosedCandle{Symbol: frame.Arg.InstID, Timeframe: timeframe, Candle: cndl}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
