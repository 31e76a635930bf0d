package service

import (
	"sync"
	"time"

	"signal_bot/internal/models"
)

// cooldown не даёт повторить то же направление по монете раньше срока.
type cooldown struct {
	period time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func newCooldown(period time.Duration) *cooldown {
	return &cooldown{period: period, last: make(map[string]time.Time)}
}

func cooldownKey(symbol string, dir models.Direction) string {
	return symbol + "|" + string(dir)
}

// take резервирует слот; false, ещё рано.
func (c *cooldown) take(symbol string, dir models.Direction, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cooldownKey(symbol, dir)
	if t, ok := c.last[key]; ok && now.Sub(t) < c.period {
		return false
	}
	c.last[key] = now
	return true
}

// release откатывает резерв, если сигнал так и не ушёл.
func (c *cooldown) release(symbol string, dir models.Direction, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cooldownKey(symbol, dir)
	if c.last[key].Equal(at) {
		delete(c.last, key)
	}
}
