package indicator

import "signal_bot/internal/models"

// Structure классифицирует тренд по EMA(fast) против EMA(slow) на закрытиях.
func Structure(closes []float64, fast, slow int) models.Trend {
	f, okF := EMA(closes, fast)
	s, okS := EMA(closes, slow)
	if !okF || !okS {
		return models.TrendNeutral
	}
	switch {
	case f > s:
		return models.TrendBullish
	case f < s:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}
