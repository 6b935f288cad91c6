package stove

import (
	"time"

	"github.com/google/uuid"
)

type Stove struct {
	ID        int64      `json:"id"`
	SerialID  string     `json:"serial_id"`
	Name      string     `json:"name"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CookUser is the public part of the user behind a cook.
type CookUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// Cook is a user's membership of a stove.
type Cook struct {
	ID      int64    `json:"id"`
	StoveID int64    `json:"-"`
	User    CookUser `json:"user"`
	IsChief bool     `json:"is_chief"`
}

// AddCookInput is what a caller sends to add a cook. NewCookID may be
// uuid.Nil on a first join, where it defaults to the requester.
type AddCookInput struct {
	NewCookID     uuid.UUID
	StoveSerialID string
}

// ProvisionInput registers a physical stove.
type ProvisionInput struct {
	SerialID string
	Name     string
}

const (
	maxSerialIDLength = 32
	maxNameLength     = 50
)
