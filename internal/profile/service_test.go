package profile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/sstove-api/internal/apperr"
	"github.com/redmonkez12/sstove-api/internal/auth"
	"github.com/redmonkez12/sstove-api/internal/database/dbtest"
	"github.com/redmonkez12/sstove-api/internal/user"
)

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	return m.Called(ctx, userID, oldPassword, newPassword).Error(0)
}

func (m *mockAccounts) ChangeEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*user.User, error) {
	args := m.Called(ctx, userID, newEmail)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

type fixture struct {
	users    *user.Repository
	accounts *mockAccounts
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{users: user.NewRepository(dbtest.New(t)), accounts: &mockAccounts{}}
	f.service = NewService(f.users, f.accounts)
	return f
}

func (f *fixture) user(t *testing.T, email string) *user.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.Create(ctx, user.NewUser{Email: email, PasswordHash: "hash", FirstName: "Ada"})
	require.NoError(t, err)
	require.NoError(t, f.users.MarkEmailAsVerified(ctx, u.ID))
	u.EmailVerified = true
	return u
}

func ptr[T any](v T) *T { return &v }

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")

	p, err := f.service.Get(ctx, owner.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, p.EnableEditingProfile)
	assert.Equal(t, "Ada", p.FirstName)

	p, err = f.service.Get(ctx, owner.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, p.EnableEditingProfile)

	_, err = f.service.Get(ctx, uuid.New(), owner.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")

	_, err := f.service.Update(ctx, owner.ID, other.ID, UpdateInput{FirstName: ptr("Eve")})
	assert.ErrorIs(t, err, ErrNotOwner)

	p, err := f.service.Update(ctx, owner.ID, owner.ID, UpdateInput{
		LastName: ptr(" Lovelace "),
		Age:      ptr(36),
		Gender:   ptr("w"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "Lovelace", p.LastName)
	require.NotNil(t, p.Age)
	assert.EqualValues(t, 36, *p.Age)
	assert.Equal(t, user.GenderWoman, p.Gender)

	_, err = f.service.Update(ctx, owner.ID, owner.ID, UpdateInput{
		FirstName: ptr("abcdefghijabcdefghijabcdefghijX"),
		Age:       ptr(-1),
		Gender:    ptr("X"),
	})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 3)

	// nothing changed
	p, err = f.service.Get(ctx, owner.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.EqualValues(t, 36, *p.Age)
}

func TestService_CredentialChangesAreOwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")

	assert.ErrorIs(t, f.service.ChangePassword(ctx, owner.ID, other.ID, "old", "newpassword"), ErrNotOwner)
	_, err := f.service.ChangeEmail(ctx, owner.ID, other.ID, "x@example.com")
	assert.ErrorIs(t, err, ErrNotOwner)
	f.accounts.AssertNotCalled(t, "ChangePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.accounts.AssertNotCalled(t, "ChangeEmail", mock.Anything, mock.Anything, mock.Anything)

	f.accounts.On("ChangePassword", ctx, owner.ID, "old", "newpassword").Return(auth.ErrWrongPassword).Once()
	assert.ErrorIs(t, f.service.ChangePassword(ctx, owner.ID, owner.ID, "old", "newpassword"), auth.ErrWrongPassword)

	changed := *owner
	changed.Email = "new@example.com"
	changed.EmailVerified = false
	f.accounts.On("ChangeEmail", ctx, owner.ID, "new@example.com").Return(&changed, nil).Once()
	p, err := f.service.ChangeEmail(ctx, owner.ID, owner.ID, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)
	assert.False(t, p.IsActive)

	mailErr := fmt.Errorf("%w: %v", auth.ErrMailUndelivered, errors.New("smtp down"))
	f.accounts.On("ChangeEmail", ctx, owner.ID, "down@example.com").Return(nil, mailErr).Once()
	_, err = f.service.ChangeEmail(ctx, owner.ID, owner.ID, "down@example.com")
	assert.ErrorIs(t, err, auth.ErrMailUndelivered)

	f.accounts.AssertExpectations(t)
}
