package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/sstove-api/internal/database"
	"github.com/redmonkez12/sstove-api/internal/database/dbtest"
)

func refreshStores(t *testing.T) map[string]RefreshTokenRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]RefreshTokenRepository{
		"redis":    NewRedisRepository(client),
		"postgres": NewRepository(dbtest.New(t)),
	}
}

func TestRefreshStores_Lifecycle(t *testing.T) {
	for name, store := range refreshStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()

			require.NoError(t, store.StoreRefreshToken(ctx, userID, "tok-1", time.Now().Add(time.Hour)))

			rt, err := store.GetRefreshToken(ctx, "tok-1")
			require.NoError(t, err)
			assert.Equal(t, userID, rt.UserID)
			assert.Equal(t, hashToken("tok-1"), rt.TokenHash)
			assert.True(t, rt.IsValid())

			_, err = store.GetRefreshToken(ctx, "unknown")
			assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

			require.NoError(t, store.RevokeRefreshToken(ctx, "tok-1"))
			rt, err = store.GetRefreshToken(ctx, "tok-1")
			require.NoError(t, err)
			assert.True(t, rt.IsRevoked())

			assert.ErrorIs(t, store.RevokeRefreshToken(ctx, "tok-1"), ErrRefreshTokenRevoked)
			assert.ErrorIs(t, store.RevokeRefreshToken(ctx, "unknown"), ErrRefreshTokenNotFound)
		})
	}
}

func TestRefreshStores_RevokeAll(t *testing.T) {
	for name, store := range refreshStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()
			other := uuid.New()

			require.NoError(t, store.StoreRefreshToken(ctx, userID, "a", time.Now().Add(time.Hour)))
			require.NoError(t, store.StoreRefreshToken(ctx, userID, "b", time.Now().Add(time.Hour)))
			require.NoError(t, store.StoreRefreshToken(ctx, other, "c", time.Now().Add(time.Hour)))

			require.NoError(t, store.RevokeAllUserTokens(ctx, userID))

			for _, tok := range []string{"a", "b"} {
				rt, err := store.GetRefreshToken(ctx, tok)
				require.NoError(t, err)
				assert.True(t, rt.IsRevoked(), tok)
			}
			rt, err := store.GetRefreshToken(ctx, "c")
			require.NoError(t, err)
			assert.False(t, rt.IsRevoked())
		})
	}
}

func TestRepository_CleanupExpiredTokens(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := NewRepository(db)

	require.NoError(t, repo.StoreRefreshToken(ctx, uuid.New(), "old", time.Now().Add(-time.Hour)))
	require.NoError(t, repo.StoreRefreshToken(ctx, uuid.New(), "new", time.Now().Add(time.Hour)))

	require.NoError(t, repo.CleanupExpiredTokens(ctx))
	assert.Equal(t, 1, dbtest.Count(t, db, (*database.RefreshToken)(nil)))
}

func TestRedisRepository_RejectsPastExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	err := repo.StoreRefreshToken(context.Background(), uuid.New(), "t", time.Now().Add(-time.Second))
	assert.Error(t, err)
}

func TestPasswordResetRepository(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	repo := NewPasswordResetRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	userID := uuid.New()

	require.NoError(t, repo.StorePasswordResetToken(ctx, userID, "reset"))
	assert.False(t, mr.Exists("password_reset:reset"), "raw token must not be a key")

	got, err := repo.GetPasswordResetToken(ctx, "reset")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	require.NoError(t, repo.DeletePasswordResetToken(ctx, "reset"))
	_, err = repo.GetPasswordResetToken(ctx, "reset")
	assert.ErrorIs(t, err, ErrPasswordResetTokenNotFound)

	require.NoError(t, repo.StorePasswordResetToken(ctx, userID, "expiring"))
	mr.FastForward(passwordResetTokenTTL)
	_, err = repo.GetPasswordResetToken(ctx, "expiring")
	assert.ErrorIs(t, err, ErrPasswordResetTokenNotFound)
}
