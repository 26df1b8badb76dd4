package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
// The relay itself never authenticates WebSocket sessions; accounts exist
// for the HTTP login/registration surface only.
type User struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DOB          string    `json:"dob,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserCreate represents registration input
type UserCreate struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	DOB      string `json:"dob"`
	Gender   string `json:"gender"`
}

// Credentials represents login input
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
