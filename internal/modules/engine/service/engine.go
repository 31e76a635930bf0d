package service

import (
	"context"
	"fmt"
	"sync"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"

	"go.uber.org/zap"
)

// CandleFetcher - источник свечей (биржа, кэш).
type CandleFetcher interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// LiquidityDetector: точка расширения для уровней поддержки/сопротивления.
type LiquidityDetector func(cs []models.Candle) []models.LiquidityLevel

// Engine считает один сигнал по трём таймфреймам. Состояния между вызовами нет.
type Engine struct {
	cfg       config.EngineConfig
	fetcher   CandleFetcher
	rules     []Rule
	liquidity LiquidityDetector
}

func NewEngine(cfg config.EngineConfig, fetcher CandleFetcher) *Engine {
	cfg.TargetMultipliers = append([]float64(nil), cfg.TargetMultipliers...)
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		rules:   DefaultRules(),
	}
}

// WithLiquidityDetector возвращает копию движка с детектором уровней.
func (e *Engine) WithLiquidityDetector(d LiquidityDetector) *Engine {
	cp := *e
	cp.liquidity = d
	return &cp
}

func (e *Engine) Config() config.EngineConfig { return e.cfg }

type series struct {
	higher models.Option[[]models.Candle]
	middle []models.Candle
	lowest []models.Candle
}

// fetch параллельно тянет три ТФ и ждёт все три ответа.
// Ошибка старшего ТФ не фатальна.
func (e *Engine) fetch(ctx context.Context, symbol string) (series, error) {
	var (
		wg                    sync.WaitGroup
		higher, middle, lower []models.Candle
		hErr, mErr, lErr      error
	)

	get := func(tf config.TimeframeConfig, out *[]models.Candle, errOut *error) {
		defer wg.Done()
		span, ctx := tracing.StartSpan(ctx, "engine.fetch", map[string]interface{}{
			"symbol": symbol, "interval": tf.Interval,
		})
		defer span.Finish()
		*out, *errOut = e.fetcher.GetCandles(ctx, symbol, tf.Interval, tf.Limit)
	}

	withHigher := e.cfg.Higher.Interval != ""
	if withHigher {
		wg.Add(1)
		go get(e.cfg.Higher, &higher, &hErr)
	}
	wg.Add(2)
	go get(e.cfg.Middle, &middle, &mErr)
	go get(e.cfg.Lowest, &lower, &lErr)
	wg.Wait()

	if mErr != nil {
		return series{}, fmt.Errorf("middle %s: %w", e.cfg.Middle.Interval, mErr)
	}
	if lErr != nil {
		return series{}, fmt.Errorf("lowest %s: %w", e.cfg.Lowest.Interval, lErr)
	}

	s := series{middle: middle, lowest: lower, higher: models.None[[]models.Candle]()}
	switch {
	case !withHigher:
	case hErr != nil:
		logger.Warn("[ENGINE] %s higher %s unavailable: %v", symbol, e.cfg.Higher.Interval, hErr)
	case len(higher) > 0:
		s.higher = models.Some(higher)
	}
	return s, nil
}

// Analyze всегда возвращает корректный Signal.
func (e *Engine) Analyze(ctx context.Context, symbol string) models.Signal {
	span, ctx := tracing.StartSpan(ctx, "engine.Analyze", map[string]interface{}{"symbol": symbol})
	defer span.Finish()

	s, err := e.fetch(ctx, symbol)
	if err != nil {
		logger.With(zap.String("symbol", symbol), zap.Error(err)).Warn("[ENGINE] fetch failed")
		span.SetTag("error", true)
		return models.Signal{Symbol: symbol, Direction: models.DirectionNoTrade, Reason: reasonInsufficient}
	}

	sig := e.Evaluate(symbol, s.higher, s.middle, s.lowest)
	span.SetTag("direction", string(sig.Direction))

	logger.With(
		zap.String("symbol", symbol),
		zap.String("direction", string(sig.Direction)),
		zap.Int("confidence", sig.Confidence),
		zap.String("reason", sig.Reason),
	).Debug("[ENGINE] analyzed")
	return sig
}

// Evaluate - чистая функция от трёх серий свечей.
func (e *Engine) Evaluate(
	symbol string,
	higher models.Option[[]models.Candle],
	middle, lowest []models.Candle,
) (sig models.Signal) {
	defer func() {
		if r := recover(); r != nil {
			sig = models.Signal{
				Symbol:    symbol,
				Direction: models.DirectionNoTrade,
				Reason:    fmt.Sprintf(reasonComputationFail, r),
			}
		}
	}()

	insufficient := models.Signal{Symbol: symbol, Direction: models.DirectionNoTrade, Reason: reasonInsufficient}
	if len(middle) == 0 || len(lowest) == 0 {
		return insufficient
	}
	last := lowest[len(lowest)-1]
	if last.Close <= 0 || middle[len(middle)-1].Close <= 0 {
		return insufficient
	}

	st := pipelineState{
		symbol:     symbol,
		candleTime: last.Time,
		price:      last.Close,
		higher:     models.None[models.TimeframeAnalysis](),
	}
	st.atr = e.referenceATR(middle, lowest, st.price)
	st.middle = e.analyzeTimeframe(e.cfg.Middle.Interval, middle, st.atr)
	st.lowest = e.analyzeTimeframe(e.cfg.Lowest.Interval, lowest, st.atr)
	if h, ok := higher.Get(); ok && len(h) > 0 {
		st.higher = models.Some(e.analyzeTimeframe(e.cfg.Higher.Interval, h, st.atr))
	}

	sig, err := e.runPipeline(st)
	if err != nil {
		return models.Signal{
			Symbol:     symbol,
			Direction:  models.DirectionNoTrade,
			Reason:     fmt.Sprintf(reasonComputationFail, err),
			CandleTime: st.candleTime,
		}
	}
	return sig
}
