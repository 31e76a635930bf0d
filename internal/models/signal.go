package models

import "time"

type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNeutral Direction = "NEUTRAL"
	DirectionNoTrade Direction = "NO_TRADE"
)

// Directional: true для LONG/SHORT.
func (d Direction) Directional() bool {
	return d == DirectionLong || d == DirectionShort
}

type TargetCandidate struct {
	Multiplier     float64 `json:"multiplier"`
	StopDistance   float64 `json:"stop_distance"`
	TargetDistance float64 `json:"target_distance"`
	WinProbability float64 `json:"win_probability"`
	ExpectedValue  float64 `json:"expected_value"`
	RewardToRisk   float64 `json:"reward_to_risk"`
}

type Diagnostics struct {
	Multiplier    float64            `json:"multiplier"`
	Probability   float64            `json:"probability"`
	Probabilities map[string]float64 `json:"probabilities"` // multiplier -> p
	ATR           float64            `json:"atr"`
	BiasScore     float64            `json:"bias_score"`
	Score         float64            `json:"score"`
	HigherTrend   Trend              `json:"higher_trend"`
	MiddleTrend   Trend              `json:"middle_trend"`
	MomentumOK    bool               `json:"momentum_strong"`
	MiddleSpike   bool               `json:"middle_volume_spike"`
	LowerSpike    bool               `json:"lower_volume_spike"`
	Rules         []string           `json:"rules"` // сработавшие правила модели
}

// Signal: результат одного вызова движка. Только рекомендация.
type Signal struct {
	Symbol       string       `json:"symbol"`
	Direction    Direction    `json:"direction"`
	Confidence   int          `json:"confidence"`
	Entry        float64      `json:"entry,omitempty"`
	StopLoss     float64      `json:"stop_loss,omitempty"`
	TakeProfit   float64      `json:"take_profit,omitempty"`
	RewardToRisk float64      `json:"reward_to_risk,omitempty"`
	PositionSize float64      `json:"position_size,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	CandleTime   time.Time    `json:"candle_time"`
	Diagnostics  *Diagnostics `json:"diagnostics,omitempty"`
}
