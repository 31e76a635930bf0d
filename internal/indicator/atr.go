package indicator

import (
	"math"

	"signal_bot/internal/models"
)

// ATR: Average True Range со сглаживанием Уайлдера.
// Возвращает 0, если свечей меньше period+1.
func ATR(cs []models.Candle, period int) float64 {
	if period <= 0 || len(cs) < period+1 {
		return 0
	}

	tr := func(i int) float64 {
		c, prev := cs[i], cs[i-1].Close
		return math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prev), math.Abs(c.Low-prev)))
	}

	var sum float64
	for i := 1; i <= period; i++ {
		sum += tr(i)
	}
	atr := sum / float64(period)

	for i := period + 1; i < len(cs); i++ {
		atr = (atr*float64(period-1) + tr(i)) / float64(period)
	}
	return math.Max(atr, 0)
}
