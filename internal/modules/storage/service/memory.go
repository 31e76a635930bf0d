package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"signal_bot/internal/models"

	"github.com/google/uuid"
)

const memoryHistoryCap = 1000

// Memory - хранилище в памяти процесса, когда Postgres не настроен.
type Memory struct {
	mu      sync.RWMutex
	subs    map[int64]models.Subscriber
	history []models.SignalRecord

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		subs: make(map[int64]models.Subscriber),
		now:  time.Now,
	}
}

func (m *Memory) Subscribe(_ context.Context, chatID int64, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subs[chatID]
	if !ok {
		s = models.Subscriber{ChatID: chatID, CreatedAt: m.now()}
	}
	s.Username = username
	s.Active = true
	m.subs[chatID] = s
	return nil
}

func (m *Memory) Unsubscribe(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subs[chatID]
	if !ok || !s.Active {
		return ErrNotFound
	}
	s.Active = false
	m.subs[chatID] = s
	return nil
}

func (m *Memory) Get(_ context.Context, chatID int64) (models.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subs[chatID]
	if !ok {
		return models.Subscriber{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) Active(_ context.Context) ([]models.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Subscriber, 0, len(m.subs))
	for _, s := range m.subs {
		if s.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Save(_ context.Context, sig models.Signal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := models.SignalRecord{ID: uuid.NewString(), Signal: sig, CreatedAt: m.now()}
	m.history = append(m.history, rec)
	if len(m.history) > memoryHistoryCap {
		m.history = m.history[len(m.history)-memoryHistoryCap:]
	}
	return rec.ID, nil
}

// Recent: последние n записей, новые первыми. Пустой symbol, все инструменты.
func (m *Memory) Recent(_ context.Context, symbol string, n int) ([]models.SignalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.SignalRecord
	for i := len(m.history) - 1; i >= 0 && len(out) < n; i-- {
		if symbol == "" || m.history[i].Signal.Symbol == symbol {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}
