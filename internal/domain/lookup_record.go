package domain

import "time"

// MaxSymbolLength es el largo máximo de un ticker persistido.
const MaxSymbolLength = 5

// LookupRecord registra el último ticker consultado por un usuario para "more info".
type LookupRecord struct {
	ID     int64     `json:"id"`
	UserID string    `json:"user_id"`
	Symbol string    `json:"symbol"`
	SentAt time.Time `json:"sent_at"`
}
