package service

import (
	"math"

	"signal_bot/internal/models"
)

const (
	degenerateProbability = 0.01
	scoreClamp            = 10.0

	quietATRPct = 0.0002
	noisyATRPct = 0.02
)

// Features: входы эвристической модели для одного направления.
type Features struct {
	Direction models.Direction
	Higher    models.Option[models.TimeframeAnalysis]
	Middle    models.TimeframeAnalysis
	Lowest    models.TimeframeAnalysis
	ATR       float64
}

// ATRPct: волатильность относительно цены среднего ТФ.
func (f Features) ATRPct() float64 {
	if f.Middle.Price <= 0 {
		return 0
	}
	return f.ATR / f.Middle.Price
}

// Rule - именованное правило модели, вклад Weight*Scale, если Applies.
type Rule struct {
	Name    string
	Weight  float64
	Applies func(f Features) bool
	Scale   func(f Features) float64 // nil == 1
}

func (r Rule) Contribution(f Features) float64 {
	if !r.Applies(f) {
		return 0
	}
	if r.Scale == nil {
		return r.Weight
	}
	return r.Weight * r.Scale(f)
}

func matches(t models.Trend, d models.Direction) bool {
	return (t == models.TrendBullish && d == models.DirectionLong) ||
		(t == models.TrendBearish && d == models.DirectionShort)
}

func always(Features) bool { return true }

// DefaultRules: порядок важен только для диагностики.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "higher_trend", Weight: 1.2, Applies: func(f Features) bool {
			h, ok := f.Higher.Get()
			return ok && matches(h.Trend, f.Direction)
		}},
		{Name: "middle_trend", Weight: 0.9, Applies: func(f Features) bool {
			return matches(f.Middle.Trend, f.Direction)
		}},
		{Name: "middle_confidence", Weight: 1, Applies: always, Scale: func(f Features) float64 {
			return f.Middle.Confidence/100 - 0.5
		}},
		{Name: "middle_volume_spike", Weight: 0.6, Applies: func(f Features) bool { return f.Middle.VolumeSpike }},
		{Name: "lowest_momentum", Weight: 0.8, Applies: func(f Features) bool { return f.Lowest.MomentumStrong }},
		{Name: "lowest_volume_spike", Weight: 0.6, Applies: func(f Features) bool { return f.Lowest.VolumeSpike }},
		{Name: "lowest_body", Weight: 0.5, Applies: func(f Features) bool { return f.Lowest.LastBody > 0.5*f.ATR }},
		{Name: "too_quiet", Weight: -0.5, Applies: func(f Features) bool { return f.ATRPct() < quietATRPct }},
		{Name: "too_noisy", Weight: -0.6, Applies: func(f Features) bool { return f.ATRPct() > noisyATRPct }},
	}
}

// score суммирует правила и возвращает имена сработавших.
func score(rules []Rule, f Features) (float64, []string) {
	var total float64
	var fired []string
	for _, r := range rules {
		if !r.Applies(f) {
			continue
		}
		total += r.Contribution(f)
		fired = append(fired, r.Name)
	}
	return total, fired
}

func logistic(s float64) float64 {
	s = math.Max(-scoreClamp, math.Min(scoreClamp, s))
	return 1 / (1 + math.Exp(-s))
}

// winProbability одинакова для всех кандидатов: модель не смотрит на дистанцию цели.
func winProbability(rules []Rule, f Features) (float64, float64, []string) {
	if f.ATR <= 0 {
		return degenerateProbability, 0, nil
	}
	s, fired := score(rules, f)
	return logistic(s), s, fired
}
