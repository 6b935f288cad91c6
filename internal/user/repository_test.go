package user_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/sstove-api/internal/database/dbtest"
	"github.com/redmonkez12/sstove-api/internal/user"
)

func newUser(t *testing.T, repo *user.Repository, email string) *user.User {
	t.Helper()
	u, err := repo.Create(context.Background(), user.NewUser{
		Email:             email,
		PasswordHash:      "hash",
		FirstName:         "Ada",
		VerificationToken: "token-" + email,
	})
	require.NoError(t, err)
	return u
}

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))

	created := newUser(t, repo, "ada@example.com")
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.IsActive())
	assert.Equal(t, user.GenderUnknown, created.Gender)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.FirstName)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestRepository_DuplicateEmail(t *testing.T) {
	repo := user.NewRepository(dbtest.New(t))
	newUser(t, repo, "dup@example.com")

	_, err := repo.Create(context.Background(), user.NewUser{Email: "dup@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestRepository_VerificationFlow(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))
	u := newUser(t, repo, "v@example.com")

	found, err := repo.GetByVerificationToken(ctx, "token-v@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	used, err := repo.CheckIfTokenAlreadyUsed(ctx, "token-v@example.com")
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, repo.MarkEmailAsVerified(ctx, u.ID))

	_, err = repo.GetByVerificationToken(ctx, "token-v@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)

	used, err = repo.CheckIfTokenAlreadyUsed(ctx, "token-v@example.com")
	require.NoError(t, err)
	assert.True(t, used)

	assert.ErrorIs(t, repo.MarkEmailAsVerified(ctx, uuid.New()), user.ErrNotFound)
}

func TestRepository_UpdateEmailDeactivates(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))
	u := newUser(t, repo, "old@example.com")
	other := newUser(t, repo, "taken@example.com")
	require.NoError(t, repo.SetActive(ctx, u.ID, true))

	require.NoError(t, repo.UpdateEmail(ctx, u.ID, "new@example.com", "fresh"))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.False(t, got.IsActive())
	require.NotNil(t, got.EmailVerificationToken)
	assert.Equal(t, "fresh", *got.EmailVerificationToken)

	err = repo.UpdateEmail(ctx, u.ID, other.Email, "t")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestRepository_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := user.NewRepository(dbtest.New(t))
	u := newUser(t, repo, "p@example.com")

	last := "Lovelace"
	age := int16(36)
	got, err := repo.UpdateProfile(ctx, u.ID, user.ProfileUpdate{LastName: &last, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Lovelace", got.LastName)
	require.NotNil(t, got.Age)
	assert.EqualValues(t, 36, *got.Age)
	assert.Equal(t, "Ada Lovelace", got.FullName())

	unchanged, err := repo.UpdateProfile(ctx, u.ID, user.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, got.LastName, unchanged.LastName)

	_, err = repo.UpdateProfile(ctx, uuid.New(), user.ProfileUpdate{LastName: &last})
	assert.ErrorIs(t, err, user.ErrNotFound)
}
