package service

import "signal_bot/internal/models"

func momentumDirection(a models.TimeframeAnalysis) models.Direction {
	switch {
	case a.Momentum > 0:
		return models.DirectionLong
	case a.Momentum < 0:
		return models.DirectionShort
	default:
		return models.DirectionNeutral
	}
}

// confirmsBias: младший ТФ идёт в сторону bias, либо сильный импульс с всплеском объёма.
func confirmsBias(lowest models.TimeframeAnalysis, bias models.Direction) bool {
	if momentumDirection(lowest) == bias {
		return true
	}
	return lowest.MomentumStrong && lowest.VolumeSpike
}
