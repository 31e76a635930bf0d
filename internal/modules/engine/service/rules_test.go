package service

import (
	"math"
	"testing"

	"signal_bot/internal/models"
)

func ruleByName(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range DefaultRules() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %s not found", name)
	return Rule{}
}

func TestRuleContributions(t *testing.T) {
	bull := models.TimeframeAnalysis{Trend: models.TrendBullish, Price: 50000, Confidence: 80}

	tests := []struct {
		rule string
		f    Features
		want float64
	}{
		{"higher_trend", Features{Direction: models.DirectionLong, Higher: models.Some(bull)}, 1.2},
		{"higher_trend", Features{Direction: models.DirectionShort, Higher: models.Some(bull)}, 0},
		{"higher_trend", Features{Direction: models.DirectionLong, Higher: models.None[models.TimeframeAnalysis]()}, 0},
		{"middle_trend", Features{Direction: models.DirectionLong, Middle: bull}, 0.9},
		{"middle_confidence", Features{Middle: bull}, 0.3},
		{"middle_confidence", Features{Middle: models.TimeframeAnalysis{Confidence: 60}}, 0.1},
		{"middle_volume_spike", Features{Middle: models.TimeframeAnalysis{VolumeSpike: true}}, 0.6},
		{"lowest_momentum", Features{Lowest: models.TimeframeAnalysis{MomentumStrong: true}}, 0.8},
		{"lowest_volume_spike", Features{Lowest: models.TimeframeAnalysis{VolumeSpike: true}}, 0.6},
		{"lowest_body", Features{Lowest: models.TimeframeAnalysis{LastBody: 51}, ATR: 100}, 0.5},
		{"lowest_body", Features{Lowest: models.TimeframeAnalysis{LastBody: 50}, ATR: 100}, 0},
		{"too_quiet", Features{Middle: models.TimeframeAnalysis{Price: 50000}, ATR: 5}, -0.5},
		{"too_quiet", Features{Middle: models.TimeframeAnalysis{Price: 50000}, ATR: 100}, 0},
		{"too_noisy", Features{Middle: models.TimeframeAnalysis{Price: 100}, ATR: 3}, -0.6},
		{"too_noisy", Features{Middle: models.TimeframeAnalysis{Price: 100}, ATR: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got := ruleByName(t, tt.rule).Contribution(tt.f)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s: want %v, got %v", tt.rule, tt.want, got)
			}
		})
	}
}

func TestWinProbabilityDegenerateATR(t *testing.T) {
	p, s, fired := winProbability(DefaultRules(), Features{Direction: models.DirectionLong, ATR: 0})
	if p != 0.01 || s != 0 || fired != nil {
		t.Errorf("ATR<=0 must short-circuit to 0.01, got p=%v s=%v fired=%v", p, s, fired)
	}
}

func TestWinProbabilityBounds(t *testing.T) {
	// s зажат в [-10,10], p строго внутри (0,1)
	for _, s := range []float64{-100, -10, 0, 10, 100} {
		p := logistic(s)
		if p <= 0 || p >= 1 {
			t.Errorf("logistic(%v) = %v out of (0,1)", s, p)
		}
	}
	if logistic(100) != logistic(10) {
		t.Error("score must be clamped to 10")
	}
	if logistic(0) != 0.5 {
		t.Errorf("logistic(0) = %v", logistic(0))
	}
}

func TestScoreReportsFiredRules(t *testing.T) {
	f := Features{
		Direction: models.DirectionLong,
		Middle:    models.TimeframeAnalysis{Trend: models.TrendBullish, Price: 50000, Confidence: 70},
		ATR:       100,
	}
	s, fired := score(DefaultRules(), f)
	if math.Abs(s-1.1) > 1e-9 {
		t.Errorf("want 0.9+0.2, got %v", s)
	}
	want := []string{"middle_trend", "middle_confidence"}
	if len(fired) != len(want) || fired[0] != want[0] || fired[1] != want[1] {
		t.Errorf("fired = %v", fired)
	}
}

func TestStageProbabilityBelowFloor(t *testing.T) {
	e, _ := newTestEngine(nil)
	st := pipelineState{
		bias:   models.DirectionLong,
		higher: models.None[models.TimeframeAnalysis](),
		middle: models.TimeframeAnalysis{Price: 100, Trend: models.TrendBearish, Confidence: 60},
		atr:    3,
	}

	out, err := e.stageProbability(st)
	if err != nil {
		t.Fatal(err)
	}
	if out.signal == nil {
		t.Fatal("expected terminal outcome")
	}
	sig := *out.signal
	if sig.Direction != models.DirectionNoTrade {
		t.Errorf("direction = %s", sig.Direction)
	}
	if sig.Reason != "model probability below 52%" {
		t.Errorf("reason = %q", sig.Reason)
	}
	// score = 0.1 - 0.6 = -0.5, p = 0.3775
	if sig.Confidence != 38 {
		t.Errorf("confidence = %d, want 38", sig.Confidence)
	}
}
