package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signal_bot/internal/modules/config"

	"github.com/gorilla/websocket"
)

func TestStreamClosedCandles(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case subscribed <- string(msg):
		default:
		}

		_ = conn.WriteMessage(websocket.TextMessage, []byte("pong"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"arg":{"channel":"candle5m","instId":"BTC-USDT-SWAP"},"data":[
			["1700000000000","100","101","99","100.5","10","0","0","0"]]}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"arg":{"channel":"candle5m","instId":"BTC-USDT-SWAP"},"data":[
			["1700000000000","100","101","99","100.7","11","0","0","1"]]}`))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := NewOKX(config.MarketConfig{WSURL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connected := make(chan bool, 4)
	ch := c.StreamClosedCandles(ctx, []string{"BTC-USDT-SWAP"}, "5m", func(v bool) { connected <- v })

	select {
	case got := <-ch:
		if got.Symbol != "BTC-USDT-SWAP" || got.Timeframe != "5m" || got.Candle.Close != 100.7 {
			t.Errorf("unexpected candle %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no closed candle received")
	}

	if sub := <-subscribed; !strings.Contains(sub, `"op":"subscribe"`) || !strings.Contains(sub, "candle5m") {
		t.Errorf("unexpected subscribe frame %s", sub)
	}
	if !<-connected {
		t.Error("expected connected notification")
	}

	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream must close after cancel")
	}
}
