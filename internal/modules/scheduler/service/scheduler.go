package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	storage "signal_bot/internal/modules/storage/service"
	"signal_bot/pkg/logger"

	"go.uber.org/zap"
)

type Analyzer interface {
	Analyze(ctx context.Context, symbol string) models.Signal
}

type Notifier interface {
	Broadcast(ctx context.Context, sig models.Signal) int
	SendService(ctx context.Context, format string, args ...any)
}

// Reporter: куда сообщаем о ходе сканирования (health).
type Reporter interface {
	SetReady(v bool)
	TouchScan(t time.Time)
	SetWSConnected(v bool)
	AddSignals(n int)
}

// ScanStats: итоги одного прохода.
type ScanStats struct {
	Symbols     int
	Directional int
	Sent        int
	Took        time.Duration
}

type Scheduler struct {
	cfg     config.SchedulerConfig
	engine  Analyzer
	n       Notifier
	history storage.SignalLog
	coins   *Watchlist
	state   Reporter

	// ограничитель параллелизма, чтобы не словить rate limit
	sem      chan struct{}
	cd       *cooldown
	inflight sync.Map // symbol -> struct{}
	now      func() time.Time
}

func NewScheduler(
	cfg config.SchedulerConfig,
	engine Analyzer,
	n Notifier,
	history storage.SignalLog,
	coins *Watchlist,
	state Reporter,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Scheduler{
		cfg:     cfg,
		engine:  engine,
		n:       n,
		history: history,
		coins:   coins,
		state:   state,
		sem:     make(chan struct{}, max(1, cfg.Concurrency)),
		cd:      newCooldown(cfg.CooldownPerSymbol),
		now:     time.Now,
	}
}

// Run сканирует сразу и далее каждые cfg.Interval до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.coins.Refresh(ctx); err != nil {
		logger.Warn("[SCAN] watchlist refresh: %v", err)
	}
	s.n.SendService(ctx, "🚀 Сканер запущен: монет %d, интервал %s, порог %d%%",
		len(s.coins.Symbols()), s.cfg.Interval, s.cfg.MinConfidence)

	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	for {
		s.Scan(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.coins.Refresh(ctx); err != nil {
				logger.Warn("[SCAN] watchlist refresh: %v", err)
			}
		}
	}
}

// Scan: один проход по списку монет с ограниченным параллелизмом.
func (s *Scheduler) Scan(ctx context.Context) ScanStats {
	start := s.now()
	symbols := s.coins.Symbols()

	var (
		wg                sync.WaitGroup
		directional, sent atomic.Int64
	)
	for _, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case s.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-s.sem }()

			sig, delivered, ok := s.process(ctx, sym)
			if !ok {
				return
			}
			if sig.Direction.Directional() {
				directional.Add(1)
			}
			if delivered {
				sent.Add(1)
			}
		}()
	}
	wg.Wait()

	st := ScanStats{
		Symbols:     len(symbols),
		Directional: int(directional.Load()),
		Sent:        int(sent.Load()),
		Took:        s.now().Sub(start),
	}
	if ctx.Err() == nil {
		s.state.TouchScan(s.now())
		s.state.SetReady(true)
	}
	logger.Info("[SCAN] done: symbols=%d directional=%d sent=%d took=%s",
		st.Symbols, st.Directional, st.Sent, st.Took)
	return st
}

// OnClosedCandle: внеочередной разбор монеты по закрытой свече младшего ТФ.
func (s *Scheduler) OnClosedCandle(ctx context.Context, symbol string) {
	if !s.coins.Contains(symbol) {
		return
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-s.sem }()
	s.process(ctx, symbol)
}

// process: анализ, история, рассылка. ok=false, если монета уже в работе.
func (s *Scheduler) process(ctx context.Context, symbol string) (sig models.Signal, delivered, ok bool) {
	if _, busy := s.inflight.LoadOrStore(symbol, struct{}{}); busy {
		return sig, false, false
	}
	defer s.inflight.Delete(symbol)

	sig = s.engine.Analyze(ctx, symbol)
	log := logger.With(
		zap.String("symbol", symbol),
		zap.String("direction", string(sig.Direction)),
		zap.Int("confidence", sig.Confidence),
	)
	if !sig.Direction.Directional() {
		log.Debug("[SCAN] skip: " + sig.Reason)
		return sig, false, true
	}

	if _, err := s.history.Save(ctx, sig); err != nil {
		log.Warn("[SCAN] history save failed", zap.Error(err))
	}

	if sig.Confidence < s.cfg.MinConfidence {
		log.Info("[SCAN] below min confidence")
		return sig, false, true
	}

	now := s.now()
	if !s.cd.take(symbol, sig.Direction, now) {
		log.Info("[SCAN] cooldown")
		return sig, false, true
	}
	if s.n.Broadcast(ctx, sig) == 0 {
		s.cd.release(symbol, sig.Direction, now)
		return sig, false, true
	}
	s.state.AddSignals(1)
	log.Info("[SCAN] signal sent")
	return sig, true, true
}
