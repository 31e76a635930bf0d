package indicator

import "signal_bot/internal/models"

// FairValueGaps: разрывы между соседними свечами для внутренних баров серии.
func FairValueGaps(cs []models.Candle) []models.FVG {
	var out []models.FVG
	for i := 1; i < len(cs)-1; i++ {
		prev, cur := cs[i-1], cs[i]
		if cur.Low > prev.High {
			out = append(out, models.FVG{Type: models.GapBullish, Low: prev.High, High: cur.Low, Index: i})
		}
		if cur.High < prev.Low {
			out = append(out, models.FVG{Type: models.GapBearish, Low: cur.High, High: prev.Low, Index: i})
		}
	}
	return out
}
