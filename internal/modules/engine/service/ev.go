package service

import "signal_bot/internal/models"

// buildCandidates: стоп фиксирован (stopMult*ATR), цель multiplier*ATR.
func buildCandidates(multipliers []float64, stopMult, atr, p float64) []models.TargetCandidate {
	stop := stopMult * atr
	out := make([]models.TargetCandidate, 0, len(multipliers))
	for _, m := range multipliers {
		target := m * atr
		c := models.TargetCandidate{
			Multiplier:     m,
			StopDistance:   stop,
			TargetDistance: target,
			WinProbability: p,
			ExpectedValue:  p*target - (1-p)*stop,
		}
		if stop > 0 {
			c.RewardToRisk = target / stop
		}
		out = append(out, c)
	}
	return out
}

// selectBest: максимум EV; при равенстве остаётся более ранний кандидат.
func selectBest(cs []models.TargetCandidate) models.TargetCandidate {
	best := cs[0]
	for _, c := range cs[1:] {
		if c.ExpectedValue > best.ExpectedValue {
			best = c
		}
	}
	return best
}
