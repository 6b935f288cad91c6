package user

import (
	"time"

	"github.com/google/uuid"
)

// Gender codes stored on the profile.
const (
	GenderMan     = "M"
	GenderWoman   = "W"
	GenderOther   = "O"
	GenderUnknown = "U"
)

type User struct {
	ID                      uuid.UUID  `json:"id"`
	Email                   string     `json:"email"`
	PasswordHash            string     `json:"-"` // Never expose password hash in JSON
	EmailVerified           bool       `json:"email_verified"`
	EmailVerificationToken  *string    `json:"-"`
	EmailVerificationSentAt *time.Time `json:"-"`
	FirstName               string     `json:"first_name"`
	LastName                string     `json:"last_name"`
	Age                     *int16     `json:"age"`
	Gender                  string     `json:"gender"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.EmailVerified
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// NewUser holds what registration persists.
type NewUser struct {
	Email             string
	PasswordHash      string
	FirstName         string
	VerificationToken string
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Age       *int16
	Gender    *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Age == nil && p.Gender == nil
}
