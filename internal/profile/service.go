// Package profile serves user profiles and the owner-only account changes
// reachable from them.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/apperr"
	"github.com/redmonkez12/sstove-api/internal/user"
)

var ErrNotOwner = errors.New("only the owner may change this profile")

const maxNamePartLength = 30

// Store is the slice of the identity store that profiles need.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd user.ProfileUpdate) (*user.User, error)
}

// Accounts performs credential changes. auth.Service implements it.
type Accounts interface {
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	ChangeEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*user.User, error)
}

// Profile is a user as shown on their profile page.
type Profile struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	Age                  *int16    `json:"age"`
	Gender               string    `json:"gender"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	EnableEditingProfile bool      `json:"enable_editing_profile"`
}

// UpdateInput is a partial profile update as received from clients.
type UpdateInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Age       *int    `json:"age"`
	Gender    *string `json:"gender"`
}

type Service struct {
	users    Store
	accounts Accounts
}

func NewService(users Store, accounts Accounts) *Service {
	return &Service{users: users, accounts: accounts}
}

// Get returns the profile of userID as seen by requester.
func (s *Service) Get(ctx context.Context, userID, requester uuid.UUID) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(u, requester), nil
}

// Update applies a partial update to the requester's own profile.
func (s *Service) Update(ctx context.Context, userID, requester uuid.UUID, in UpdateInput) (*Profile, error) {
	if userID != requester {
		return nil, ErrNotOwner
	}

	upd, err := validateUpdate(in)
	if err != nil {
		return nil, err
	}

	u, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	return toProfile(u, requester), nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, requester uuid.UUID, oldPassword, newPassword string) error {
	if userID != requester {
		return ErrNotOwner
	}
	return s.accounts.ChangePassword(ctx, userID, oldPassword, newPassword)
}

// ChangeEmail switches the requester's address. The account stays inactive
// until the new address is confirmed.
func (s *Service) ChangeEmail(ctx context.Context, userID, requester uuid.UUID, newEmail string) (*Profile, error) {
	if userID != requester {
		return nil, ErrNotOwner
	}

	u, err := s.accounts.ChangeEmail(ctx, userID, newEmail)
	if err != nil {
		return nil, err
	}
	return toProfile(u, requester), nil
}

func validateUpdate(in UpdateInput) (user.ProfileUpdate, error) {
	fields := map[string]string{}
	var upd user.ProfileUpdate

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if utf8.RuneCountInString(v) > maxNamePartLength {
			fields["first_name"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxNamePartLength)
		}
		upd.FirstName = &v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if utf8.RuneCountInString(v) > maxNamePartLength {
			fields["last_name"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxNamePartLength)
		}
		upd.LastName = &v
	}
	if in.Age != nil {
		if *in.Age < 0 || *in.Age > 32767 {
			fields["age"] = "Ensure this value is between 0 and 32767."
		} else {
			age := int16(*in.Age)
			upd.Age = &age
		}
	}
	if in.Gender != nil {
		switch g := strings.ToUpper(strings.TrimSpace(*in.Gender)); g {
		case user.GenderMan, user.GenderWoman, user.GenderOther, user.GenderUnknown:
			upd.Gender = &g
		default:
			fields["gender"] = fmt.Sprintf("%q is not a valid choice.", *in.Gender)
		}
	}

	if len(fields) > 0 {
		return user.ProfileUpdate{}, apperr.Validation(fields)
	}
	return upd, nil
}

func toProfile(u *user.User, requester uuid.UUID) *Profile {
	return &Profile{
		ID:                   u.ID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Age:                  u.Age,
		Gender:               u.Gender,
		IsActive:             u.IsActive(),
		CreatedAt:            u.CreatedAt,
		EnableEditingProfile: u.ID == requester,
	}
}
