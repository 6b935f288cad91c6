package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServices(t *testing.T) map[string]TokenService {
	t.Helper()
	p, err := NewPasetoService([]byte(testKey))
	require.NoError(t, err)
	j, err := NewJWTService([]byte(testKey))
	require.NoError(t, err)
	return map[string]TokenService{"paseto": p, "jwt": j}
}

func TestTokenService_RoundTrip(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			id := uuid.New()
			token, err := svc.CreateToken(id, "a@example.com", 24*time.Hour)
			require.NoError(t, err)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, id.String(), claims.UserID)
			assert.Equal(t, "a@example.com", claims.Email)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt, 5*time.Second)
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken(uuid.New(), "a@example.com", -time.Minute)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestTokenService_Tampered(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken(uuid.New(), "a@example.com", time.Hour)
			require.NoError(t, err)

			last := token[len(token)-1:]
			swap := "A"
			if last == "A" {
				swap = "B"
			}
			_, err = svc.VerifyToken(strings.TrimSuffix(token, last) + swap)
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = svc.VerifyToken("garbage")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_WrongKey(t *testing.T) {
	other := []byte(strings.Repeat("k", 32))

	p1, _ := NewPasetoService([]byte(testKey))
	p2, _ := NewPasetoService(other)
	token, err := p1.CreateToken(uuid.New(), "a@example.com", time.Hour)
	require.NoError(t, err)
	_, err = p2.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	j1, _ := NewJWTService([]byte(testKey))
	j2, _ := NewJWTService(other)
	token, err = j1.CreateToken(uuid.New(), "a@example.com", time.Hour)
	require.NoError(t, err)
	_, err = j2.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)
	_, err = NewJWTService([]byte("short"))
	assert.Error(t, err)
}

func TestPassword_HashAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
	assert.False(t, VerifyPassword("not-a-hash", "correct horse"))
	assert.False(t, VerifyPassword("$bcrypt$v=19$m=1,t=1,p=1$aaaa$bbbb", "correct horse"))

	other, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ")
}

func TestRefreshToken_Validity(t *testing.T) {
	now := time.Now()
	valid := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, valid.IsValid())

	expired := &RefreshToken{ExpiresAt: now.Add(-time.Second)}
	assert.True(t, expired.IsExpired())
	assert.False(t, expired.IsValid())

	revoked := &RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &now}
	assert.True(t, revoked.IsRevoked())
	assert.False(t, revoked.IsValid())
}
