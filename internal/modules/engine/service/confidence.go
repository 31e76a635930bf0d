package service

import "math"

const (
	minConfidence = 20
	maxConfidence = 98

	probabilityWeight = 0.7
	middleConfWeight  = 0.2
	momentumBonus     = 0.08
)

func blendConfidence(p, middleConfidence float64, momentumStrong bool) int {
	v := probabilityWeight*p + middleConfWeight*(middleConfidence/100)
	if momentumStrong {
		v += momentumBonus
	}
	c := int(math.Round(100 * v))
	return max(minConfidence, min(maxConfidence, c))
}

// positionSize считает справочный объём: риск в деньгах / дистанция до стопа.
func positionSize(accountSize, riskPct, entry, stop float64) float64 {
	dist := math.Abs(entry - stop)
	if dist == 0 {
		return 0
	}
	return accountSize * riskPct / 100 / dist
}
