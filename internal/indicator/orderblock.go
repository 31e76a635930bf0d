package indicator

import "signal_bot/internal/models"

const (
	orderBlockWindow    = 5
	orderBlockBodyRatio = 0.6
	orderBlockVolLookup = 6
)

// OrderBlock ищет (от старых к новым) среди 5 свечей перед последней первую,
// у которой тело >= 60% диапазона, а объём выше среднего по <=6 предыдущим свечам.
func OrderBlock(cs []models.Candle) models.Option[models.OrderBlock] {
	last := len(cs) - 1 // последняя свеча не участвует
	if last < 1 {
		return models.None[models.OrderBlock]()
	}
	from := last - orderBlockWindow
	if from < 0 {
		from = 0
	}

	for i := from; i < last; i++ {
		c := cs[i]
		rng := c.Range()
		if rng <= 0 || c.Body() < orderBlockBodyRatio*rng {
			continue
		}

		start := i - orderBlockVolLookup
		if start < 0 {
			start = 0
		}
		if start == i {
			continue
		}
		var sum float64
		for _, p := range cs[start:i] {
			sum += p.Volume
		}
		if c.Volume <= sum/float64(i-start) {
			continue
		}

		return models.Some(models.OrderBlock{
			Index:   i,
			High:    c.High,
			Low:     c.Low,
			Bullish: c.Bullish(),
		})
	}
	return models.None[models.OrderBlock]()
}
