package models

import "time"

// Candle: закрытая свеча одного таймфрейма.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Body: размер тела свечи.
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range: high-low.
func (c Candle) Range() float64 { return c.High - c.Low }

func (c Candle) Bullish() bool { return c.Close > c.Open }

// Closes возвращает цены закрытия по порядку.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}
