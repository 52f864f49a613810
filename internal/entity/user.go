package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
)

// User represents an account for data transfer between layers.
type User struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	Role         constants.Role `json:"role"`
	FullName     string         `json:"full_name"`
	CreatedAt    time.Time      `json:"created_at"`
}
