package indicator

import "signal_bot/internal/models"

// VolumeSpike: объём последней свечи больше factor * средний объём lookback предыдущих.
// Нужно минимум lookback+1 свечей.
func VolumeSpike(cs []models.Candle, lookback int, factor float64) bool {
	n := len(cs)
	if lookback <= 0 || n < lookback+1 {
		return false
	}
	var sum float64
	for _, c := range cs[n-1-lookback : n-1] {
		sum += c.Volume
	}
	avg := sum / float64(lookback)
	return cs[n-1].Volume > factor*avg
}
