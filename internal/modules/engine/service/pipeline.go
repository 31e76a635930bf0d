package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"signal_bot/internal/models"
)

const (
	reasonNoBias          = "no clear multi-timeframe bias"
	reasonNotConfirming   = "lowest timeframe not confirming bias"
	reasonLowProbability  = "model probability below %.0f%%"
	reasonInvalidTarget   = "invalid target ordering"
	reasonInvalidStop     = "invalid stop ordering"
	reasonInsufficient    = "insufficient data"
	reasonComputationFail = "computation error: %v"
)

// pipelineState протаскивается между стадиями.
type pipelineState struct {
	symbol     string
	candleTime time.Time

	higher models.Option[models.TimeframeAnalysis]
	middle models.TimeframeAnalysis
	lowest models.TimeframeAnalysis
	price  float64
	atr    float64

	biasScore float64
	bias      models.Direction

	probability float64
	score       float64
	rules       []string
	candidates  []models.TargetCandidate
	chosen      models.TargetCandidate
	levels      levels
}

// outcome: либо следующий state, либо финальный сигнал.
type outcome struct {
	state  pipelineState
	signal *models.Signal
}

func proceed(st pipelineState) outcome { return outcome{state: st} }

func terminal(sig models.Signal) outcome { return outcome{signal: &sig} }

type stage struct {
	name string
	run  func(st pipelineState) (outcome, error)
}

func (e *Engine) stages() []stage {
	return []stage{
		{"bias", e.stageBias},
		{"momentum", e.stageMomentum},
		{"probability", e.stageProbability},
		{"ev", e.stageSelectTarget},
		{"levels", e.stageLevels},
		{"confidence", e.stageConfidence},
	}
}

// runPipeline останавливается на первом терминальном исходе.
func (e *Engine) runPipeline(st pipelineState) (models.Signal, error) {
	for _, s := range e.stages() {
		out, err := s.run(st)
		if err != nil {
			return models.Signal{}, fmt.Errorf("stage %s: %w", s.name, err)
		}
		if out.signal != nil {
			return *out.signal, nil
		}
		st = out.state
	}
	return models.Signal{}, fmt.Errorf("pipeline finished without a signal")
}

func (st pipelineState) reject(dir models.Direction, confidence int, reason string) outcome {
	return terminal(models.Signal{
		Symbol:     st.symbol,
		Direction:  dir,
		Confidence: confidence,
		Reason:     reason,
		CandleTime: st.candleTime,
	})
}

func (e *Engine) stageBias(st pipelineState) (outcome, error) {
	st.biasScore = biasScore(st.higher, st.middle)
	st.bias = resolveBias(st.biasScore, e.cfg.BiasThreshold)
	if st.bias == models.DirectionNeutral {
		return st.reject(models.DirectionNeutral, biasConfidence(st.biasScore), reasonNoBias), nil
	}
	return proceed(st), nil
}

func (e *Engine) stageMomentum(st pipelineState) (outcome, error) {
	if !confirmsBias(st.lowest, st.bias) {
		return st.reject(models.DirectionNoTrade, biasConfidence(st.biasScore), reasonNotConfirming), nil
	}
	return proceed(st), nil
}

func (e *Engine) stageProbability(st pipelineState) (outcome, error) {
	p, s, fired := winProbability(e.rules, Features{
		Direction: st.bias,
		Higher:    st.higher,
		Middle:    st.middle,
		Lowest:    st.lowest,
		ATR:       st.atr,
	})
	if math.IsNaN(p) {
		return outcome{}, fmt.Errorf("probability is NaN (score=%v atr=%v)", s, st.atr)
	}
	st.probability, st.score, st.rules = p, s, fired
	st.candidates = buildCandidates(e.cfg.TargetMultipliers, e.cfg.StopMultiplier, st.atr, p)

	maxP := 0.0
	for _, c := range st.candidates {
		maxP = math.Max(maxP, c.WinProbability)
	}
	if maxP < e.cfg.MinProbability {
		return st.reject(models.DirectionNoTrade, int(math.Round(maxP*100)),
			fmt.Sprintf(reasonLowProbability, e.cfg.MinProbability*100)), nil
	}
	return proceed(st), nil
}

func (e *Engine) stageSelectTarget(st pipelineState) (outcome, error) {
	if len(st.candidates) == 0 {
		return outcome{}, fmt.Errorf("no target candidates")
	}
	st.chosen = selectBest(st.candidates)
	return proceed(st), nil
}

func (e *Engine) stageLevels(st pipelineState) (outcome, error) {
	l, ok := calcLevels(st.bias, st.price, st.chosen.StopDistance, st.chosen.TargetDistance,
		st.middle.OrderBlock, st.middle.LiquidityLevels)
	if !ok {
		return st.reject(models.DirectionNoTrade, 0, reasonInvalidTarget), nil
	}
	if !l.validStop(st.bias) {
		return st.reject(models.DirectionNoTrade, 0, reasonInvalidStop), nil
	}
	if math.IsNaN(l.Entry) || math.IsInf(l.Entry, 0) {
		return outcome{}, fmt.Errorf("non-finite entry %v", l.Entry)
	}
	st.levels = l
	return proceed(st), nil
}

func (e *Engine) stageConfidence(st pipelineState) (outcome, error) {
	l := st.levels
	probs := make(map[string]float64, len(st.candidates))
	for _, c := range st.candidates {
		probs[strconv.FormatFloat(c.Multiplier, 'f', -1, 64)] = c.WinProbability
	}

	higherTrend := models.TrendNeutral
	if h, ok := st.higher.Get(); ok {
		higherTrend = h.Trend
	}

	return terminal(models.Signal{
		Symbol:       st.symbol,
		Direction:    st.bias,
		Confidence:   blendConfidence(st.chosen.WinProbability, st.middle.Confidence, st.lowest.MomentumStrong),
		Entry:        l.Entry,
		StopLoss:     l.StopLoss,
		TakeProfit:   l.TakeProfit,
		RewardToRisk: math.Abs(l.TakeProfit-l.Entry) / math.Abs(l.Entry-l.StopLoss),
		PositionSize: positionSize(e.cfg.AccountSize, e.cfg.RiskPct, l.Entry, l.StopLoss),
		CandleTime:   st.candleTime,
		Diagnostics: &models.Diagnostics{
			Multiplier:    st.chosen.Multiplier,
			Probability:   st.chosen.WinProbability,
			Probabilities: probs,
			ATR:           st.atr,
			BiasScore:     st.biasScore,
			Score:         st.score,
			HigherTrend:   higherTrend,
			MiddleTrend:   st.middle.Trend,
			MomentumOK:    st.lowest.MomentumStrong,
			MiddleSpike:   st.middle.VolumeSpike,
			LowerSpike:    st.lowest.VolumeSpike,
			Rules:         st.rules,
		},
	}), nil
}
