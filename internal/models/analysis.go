package models

type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// OrderBlock: крупная свеча с повышенным объёмом (зона спроса/предложения).
type OrderBlock struct {
	Index   int     `json:"index"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Bullish bool    `json:"bullish"`
}

type GapType string

const (
	GapBullish GapType = "bullish"
	GapBearish GapType = "bearish"
)

// FVG: fair value gap между соседними свечами.
type FVG struct {
	Type  GapType `json:"type"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Index int     `json:"index"`
}

type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

type LiquidityLevel struct {
	Type  LevelType `json:"type"`
	Price float64   `json:"price"`
}

// TimeframeAnalysis: разбор одной серии свечей.
type TimeframeAnalysis struct {
	Timeframe       string
	Price           float64
	Trend           Trend
	RSI             float64
	VolumeSpike     bool
	Momentum        float64 // close - prevClose
	MomentumStrong  bool
	LastBody        float64
	OrderBlock      Option[OrderBlock]
	FairValueGaps   []FVG
	LiquidityLevels []LiquidityLevel
	Confidence      float64 // 60..80
}
