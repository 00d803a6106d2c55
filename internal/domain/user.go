package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a borrower. UserCode is a short human-facing identifier, unique
// across the system and auto-generated when absent.
type User struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	UserCode         string    `json:"user_code" db:"user_code"`
	Phone            string    `json:"phone" db:"phone"`
	Address          string    `json:"address" db:"address"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`
}
