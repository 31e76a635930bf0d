package service

import (
	"math"

	"signal_bot/internal/indicator"
	"signal_bot/internal/models"
)

const (
	baseConfidence     = 60.0
	spikeConfidence    = 10.0
	trendConfidence    = 10.0
	fallbackATRPricePc = 0.002
)

// analyzeTimeframe собирает TimeframeAnalysis по одной серии.
// refATR: общий ATR движка, нужен для оценки силы импульса.
func (e *Engine) analyzeTimeframe(tf string, cs []models.Candle, refATR float64) models.TimeframeAnalysis {
	last := cs[len(cs)-1]
	closes := models.Closes(cs)

	a := models.TimeframeAnalysis{
		Timeframe:     tf,
		Price:         last.Close,
		Trend:         indicator.Structure(closes, e.cfg.EMAFast, e.cfg.EMASlow),
		RSI:           indicator.RSI(closes, e.cfg.RSIPeriod),
		VolumeSpike:   indicator.VolumeSpike(cs, e.cfg.VolumeSpikeLookback, e.cfg.VolumeSpikeFactor),
		LastBody:      last.Body(),
		OrderBlock:    indicator.OrderBlock(cs),
		FairValueGaps: indicator.FairValueGaps(cs),
	}

	if len(cs) >= 2 {
		a.Momentum = last.Close - cs[len(cs)-2].Close
	}
	move := math.Abs(a.Momentum)
	a.MomentumStrong = move > e.cfg.MomentumPricePct*a.Price || move > e.cfg.MomentumATRFrac*refATR

	a.Confidence = baseConfidence
	if a.VolumeSpike {
		a.Confidence += spikeConfidence
	}
	if a.Trend != models.TrendNeutral {
		a.Confidence += trendConfidence
	}

	if e.liquidity != nil {
		a.LiquidityLevels = e.liquidity(cs)
	}
	return a
}

// referenceATR: ATR среднего ТФ, затем младшего, затем 0.2% цены.
func (e *Engine) referenceATR(middle, lowest []models.Candle, price float64) float64 {
	if atr := indicator.ATR(middle, e.cfg.ATRPeriod); atr > 0 {
		return atr
	}
	if atr := indicator.ATR(lowest, e.cfg.ATRPeriod); atr > 0 {
		return atr
	}
	return fallbackATRPricePc * price
}
