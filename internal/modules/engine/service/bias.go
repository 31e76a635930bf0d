package service

import (
	"math"

	"signal_bot/internal/models"
)

const (
	higherBiasWeight = 1.0
	middleBiasWeight = 0.8
	maxBiasScore     = higherBiasWeight + middleBiasWeight
)

func trendSign(t models.Trend) float64 {
	switch t {
	case models.TrendBullish:
		return 1
	case models.TrendBearish:
		return -1
	default:
		return 0
	}
}

// biasScore: старший ТФ ±1.0, средний ±0.8; отсутствующий старший даёт 0.
func biasScore(higher models.Option[models.TimeframeAnalysis], middle models.TimeframeAnalysis) float64 {
	score := middleBiasWeight * trendSign(middle.Trend)
	if h, ok := higher.Get(); ok {
		score += higherBiasWeight * trendSign(h.Trend)
	}
	return score
}

func resolveBias(score, threshold float64) models.Direction {
	switch {
	case score > threshold:
		return models.DirectionLong
	case score < -threshold:
		return models.DirectionShort
	default:
		return models.DirectionNeutral
	}
}

// biasConfidence переводит |score| в проценты от максимально возможного.
func biasConfidence(score float64) int {
	return int(math.Round(math.Abs(score) / maxBiasScore * 100))
}
