package service

import (
	"math"
	"testing"

	"signal_bot/internal/models"
)

func TestEntryPriceOrderBlock(t *testing.T) {
	ob := models.Some(models.OrderBlock{High: 51000, Low: 49000})

	if got := entryPrice(models.DirectionLong, 50000, ob); math.Abs(got-49049) > 1e-6 {
		t.Errorf("LONG entry = %v", got)
	}
	if got := entryPrice(models.DirectionShort, 50000, ob); math.Abs(got-50949) > 1e-6 {
		t.Errorf("SHORT entry = %v", got)
	}
	if got := entryPrice(models.DirectionLong, 48000, ob); got != 48000 {
		t.Errorf("LONG entry must not exceed price, got %v", got)
	}
	if got := entryPrice(models.DirectionLong, 50000, models.None[models.OrderBlock]()); got != 50000 {
		t.Errorf("no order block: entry = %v", got)
	}
}

func TestStopPrice(t *testing.T) {
	sup := func(p float64) models.LiquidityLevel { return models.LiquidityLevel{Type: models.LevelSupport, Price: p} }
	res := func(p float64) models.LiquidityLevel { return models.LiquidityLevel{Type: models.LevelResistance, Price: p} }

	tests := []struct {
		name string
		dir  models.Direction
		lv   []models.LiquidityLevel
		want float64
	}{
		{"long no levels", models.DirectionLong, nil, 95},
		{"short no levels", models.DirectionShort, nil, 105},
		{"long nearest support", models.DirectionLong, []models.LiquidityLevel{sup(90), sup(97), sup(101), res(98)}, 97},
		{"long support clipped", models.DirectionLong, []models.LiquidityLevel{sup(90)}, 95},
		{"short nearest resistance", models.DirectionShort, []models.LiquidityLevel{res(110), res(103), sup(102)}, 103},
		{"short resistance clipped", models.DirectionShort, []models.LiquidityLevel{res(110)}, 105},
		{"long only levels above", models.DirectionLong, []models.LiquidityLevel{sup(100), sup(120)}, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stopPrice(tt.dir, 100, 5, tt.lv); got != tt.want {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCalcLevels(t *testing.T) {
	none := models.None[models.OrderBlock]()

	l, ok := calcLevels(models.DirectionLong, 50000, 100, 300, none, nil)
	if !ok || l.Entry != 50000 || l.StopLoss != 49900 || l.TakeProfit != 50300 {
		t.Errorf("LONG levels %+v ok=%v", l, ok)
	}
	l, ok = calcLevels(models.DirectionShort, 50000, 100, 150, none, nil)
	if !ok || l.StopLoss != 50100 || l.TakeProfit != 49850 {
		t.Errorf("SHORT levels %+v ok=%v", l, ok)
	}

	if _, ok := calcLevels(models.DirectionLong, 100, 1, 0, none, nil); ok {
		t.Error("zero target distance must be rejected")
	}
	// вход, подтянутый к ордер-блоку, настолько велик, что +target теряется в точности
	huge := models.Some(models.OrderBlock{High: 2e17, Low: 1e17})
	if _, ok := calcLevels(models.DirectionShort, 1e17, 1, 1, huge, nil); ok {
		t.Error("take-profit equal to entry must be rejected")
	}
}

func TestStageLevelsInvalidTarget(t *testing.T) {
	e, _ := newTestEngine(nil)
	st := pipelineState{
		symbol: "X",
		bias:   models.DirectionLong,
		price:  100,
		chosen: models.TargetCandidate{StopDistance: 1, TargetDistance: 0},
		middle: models.TimeframeAnalysis{OrderBlock: models.None[models.OrderBlock]()},
	}
	out, err := e.stageLevels(st)
	if err != nil {
		t.Fatal(err)
	}
	if out.signal == nil || out.signal.Direction != models.DirectionNoTrade || out.signal.Reason != "invalid target ordering" {
		t.Errorf("unexpected outcome %+v", out.signal)
	}
}

func TestValidStop(t *testing.T) {
	if !(levels{Entry: 100, StopLoss: 99}).validStop(models.DirectionLong) {
		t.Error("LONG stop below entry is valid")
	}
	if (levels{Entry: 100, StopLoss: 100}).validStop(models.DirectionShort) {
		t.Error("SHORT stop equal to entry is invalid")
	}
}
