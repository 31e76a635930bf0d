package service

import "signal_bot/internal/models"

const (
	obEntryLongK  = 1.001
	obEntryShortK = 0.999
)

type levels struct {
	Entry      float64
	StopLoss   float64
	TakeProfit float64
}

// entryPrice подтягивает вход к ордер-блоку среднего ТФ.
func entryPrice(dir models.Direction, price float64, ob models.Option[models.OrderBlock]) float64 {
	b, ok := ob.Get()
	if !ok {
		return price
	}
	if dir == models.DirectionLong {
		return min(price, b.Low*obEntryLongK)
	}
	return max(price, b.High*obEntryShortK)
}

// stopPrice: ближайший уровень ликвидности за входом, не дальше stopDist;
// иначе entry ∓ stopDist.
func stopPrice(dir models.Direction, entry, stopDist float64, lv []models.LiquidityLevel) float64 {
	fallback := entry - stopDist
	if dir == models.DirectionShort {
		fallback = entry + stopDist
	}

	stop, found := 0.0, false
	for _, l := range lv {
		switch {
		case dir == models.DirectionLong && l.Type == models.LevelSupport && l.Price < entry:
			if !found || l.Price > stop {
				stop, found = l.Price, true
			}
		case dir == models.DirectionShort && l.Type == models.LevelResistance && l.Price > entry:
			if !found || l.Price < stop {
				stop, found = l.Price, true
			}
		}
	}
	if !found {
		return fallback
	}

	if dir == models.DirectionLong {
		stop = max(stop, entry-stopDist)
		if stop >= entry {
			return fallback
		}
		return stop
	}
	stop = min(stop, entry+stopDist)
	if stop <= entry {
		return fallback
	}
	return stop
}

// calcLevels возвращает ok=false, если тейк не лежит строго за входом.
func calcLevels(
	dir models.Direction,
	price, stopDist, targetDist float64,
	ob models.Option[models.OrderBlock],
	lv []models.LiquidityLevel,
) (levels, bool) {
	entry := entryPrice(dir, price, ob)
	l := levels{
		Entry:    entry,
		StopLoss: stopPrice(dir, entry, stopDist, lv),
	}
	if dir == models.DirectionLong {
		l.TakeProfit = entry + targetDist
		return l, l.TakeProfit > entry
	}
	l.TakeProfit = entry - targetDist
	return l, l.TakeProfit < entry
}

// validStop: стоп строго с нужной стороны входа.
func (l levels) validStop(dir models.Direction) bool {
	if dir == models.DirectionLong {
		return l.StopLoss < l.Entry
	}
	return l.StopLoss > l.Entry
}
