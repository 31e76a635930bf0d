package models

import "time"

// Subscriber: чат Telegram, получающий сигналы.
type Subscriber struct {
	ChatID    int64     `json:"chat_id"`
	Username  string    `json:"username"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// SignalRecord: запись истории сигналов.
type SignalRecord struct {
	ID        string    `json:"id"`
	Signal    Signal    `json:"signal"`
	CreatedAt time.Time `json:"created_at"`
}
