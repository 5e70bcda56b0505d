package domain

import "time"

// User es un interlocutor identificado por su número de teléfono.
type User struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}
