package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// revokedMarkerFallbackTTL is used when the token key has no TTL left to copy.
const revokedMarkerFallbackTTL = 7 * 24 * time.Hour

// RedisRepository keeps refresh tokens in Redis hashes that expire with the
// token. It is the default store (AUTH_REFRESH_STORE=redis).
type RedisRepository struct {
	client redis.Cmdable
}

func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client}
}

func tokenKey(tokenHash string) string {
	return "refresh_token:" + tokenHash
}

func revokedKey(tokenHash string) string {
	return "refresh_token:revoked:" + tokenHash
}

func userTokensKey(userID uuid.UUID) string {
	return "user_tokens:" + userID.String()
}

// StoreRefreshToken stores a refresh token in Redis with TTL
func (r *RedisRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token expiration time is in the past")
	}

	tokenHash := hashToken(token)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, tokenKey(tokenHash), map[string]any{
			"user_id":    userID.String(),
			"expires_at": expiresAt.Unix(),
			"created_at": time.Now().Unix(),
		})
		pipe.Expire(ctx, tokenKey(tokenHash), ttl)

		// The per-user set lives as long as the newest token.
		pipe.SAdd(ctx, userTokensKey(userID), tokenHash)
		pipe.Expire(ctx, userTokensKey(userID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken loads a token. Revoked tokens are returned with RevokedAt
// set so the caller can tell revocation from absence.
func (r *RedisRepository) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	tokenHash := hashToken(token)

	data, err := r.client.HGetAll(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrRefreshTokenNotFound
	}

	userID, err := uuid.Parse(data["user_id"])
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAtUnix, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	createdAtUnix, _ := strconv.ParseInt(data["created_at"], 10, 64)

	rt := &RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Unix(expiresAtUnix, 0),
		CreatedAt: time.Unix(createdAtUnix, 0),
	}

	revokedAt, err := r.client.Get(ctx, revokedKey(tokenHash)).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	default:
		if unix, perr := strconv.ParseInt(revokedAt, 10, 64); perr == nil {
			t := time.Unix(unix, 0)
			rt.RevokedAt = &t
		} else {
			now := time.Now()
			rt.RevokedAt = &now
		}
	}

	return rt, nil
}

// RevokeRefreshToken marks a refresh token as revoked. Revoking it again
// returns ErrRefreshTokenRevoked.
func (r *RedisRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	ttl, err := r.client.TTL(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		return fmt.Errorf("failed to get token TTL: %w", err)
	}
	// -2 means the key does not exist
	if ttl == -2 {
		return ErrRefreshTokenNotFound
	}

	// Only the first revocation wins, so a token cannot be rotated twice
	set, err := r.client.SetNX(ctx, revokedKey(tokenHash), time.Now().Unix(), markerTTL(ttl)).Result()
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !set {
		return ErrRefreshTokenRevoked
	}

	return nil
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *RedisRepository) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	tokenHashes, err := r.client.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to get user tokens: %w", err)
	}

	if len(tokenHashes) == 0 {
		return nil
	}

	now := time.Now().Unix()
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tokenHash := range tokenHashes {
			ttl, _ := r.client.TTL(ctx, tokenKey(tokenHash)).Result()
			pipe.Set(ctx, revokedKey(tokenHash), now, markerTTL(ttl))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke all user tokens: %w", err)
	}

	return nil
}

// CleanupExpiredTokens is a no-op: Redis expires token keys on its own.
func (r *RedisRepository) CleanupExpiredTokens(context.Context) error {
	return nil
}

func markerTTL(tokenTTL time.Duration) time.Duration {
	if tokenTTL > 0 {
		return tokenTTL
	}
	return revokedMarkerFallbackTTL
}
