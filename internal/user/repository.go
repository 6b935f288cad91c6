package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/sstove-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new, not yet activated user
func (r *Repository) Create(ctx context.Context, nu NewUser) (*User, error) {
	now := time.Now()
	dbUser := &database.User{
		ID:                      uuid.New(),
		Email:                   nu.Email,
		PasswordHash:            nu.PasswordHash,
		EmailVerificationToken:  &nu.VerificationToken,
		EmailVerificationSentAt: &now,
		EmailVerified:           false,
		FirstName:               nu.FirstName,
		Gender:                  GenderUnknown,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "get user by email", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "get user by id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
}

// GetByVerificationToken retrieves an unverified user by verification token
func (r *Repository) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	return r.getOne(ctx, "get user by verification token", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email_verification_token = ?", token).
			Where("email_verified = ?", false)
	})
}

func (r *Repository) getOne(ctx context.Context, op string, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	dbUser := new(database.User)
	err := where(r.db.NewSelect().Model(dbUser)).Limit(1).Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Exists reports whether a user with the given id exists
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// CheckIfTokenAlreadyUsed checks if a verification token was already used (email verified)
func (r *Repository) CheckIfTokenAlreadyUsed(ctx context.Context, token string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("email_verification_token = ?", token).
		Where("email_verified = ?", true).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check if token was used: %w", err)
	}

	return count > 0, nil
}

// MarkEmailAsVerified activates the account. The token is kept so a second
// click on the same link can be reported as "already verified".
func (r *Repository) MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error {
	return r.SetActive(ctx, userID, true)
}

// SetActive flips the activation flag.
func (r *Repository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return r.update(ctx, "set activation flag", userID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("email_verified = ?", active)
	})
}

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.update(ctx, "update password", userID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("password_hash = ?", passwordHash)
	})
}

// UpdateVerificationToken regenerates verification token for resend
func (r *Repository) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string) error {
	return r.update(ctx, "update verification token", userID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("email_verification_token = ?", token).
			Set("email_verification_sent_at = ?", time.Now()).
			Where("email_verified = ?", false)
	})
}

// UpdateEmail switches the account to a new address and deactivates it until
// the new address is confirmed with token.
func (r *Repository) UpdateEmail(ctx context.Context, userID uuid.UUID, email, token string) error {
	err := r.update(ctx, "update email", userID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("email = ?", email).
			Set("email_verified = ?", false).
			Set("email_verification_token = ?", token).
			Set("email_verification_sent_at = ?", time.Now())
	})
	if database.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// UpdateProfile applies a partial profile update and returns the new state
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*User, error) {
	if !upd.Empty() {
		err := r.update(ctx, "update profile", userID, func(q *bun.UpdateQuery) *bun.UpdateQuery {
			if upd.FirstName != nil {
				q = q.Set("first_name = ?", *upd.FirstName)
			}
			if upd.LastName != nil {
				q = q.Set("last_name = ?", *upd.LastName)
			}
			if upd.Age != nil {
				q = q.Set("age = ?", *upd.Age)
			}
			if upd.Gender != nil {
				q = q.Set("gender = ?", *upd.Gender)
			}
			return q
		})
		if err != nil {
			return nil, err
		}
	}

	return r.GetByID(ctx, userID)
}

func (r *Repository) update(ctx context.Context, op string, userID uuid.UUID, set func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID)

	result, err := set(q).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                      dbu.ID,
		Email:                   dbu.Email,
		PasswordHash:            dbu.PasswordHash,
		EmailVerified:           dbu.EmailVerified,
		EmailVerificationToken:  dbu.EmailVerificationToken,
		EmailVerificationSentAt: dbu.EmailVerificationSentAt,
		FirstName:               dbu.FirstName,
		LastName:                dbu.LastName,
		Age:                     dbu.Age,
		Gender:                  dbu.Gender,
		CreatedAt:               dbu.CreatedAt,
		UpdatedAt:               dbu.UpdatedAt,
	}
}
