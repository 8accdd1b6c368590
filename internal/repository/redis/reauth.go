package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/repository"
)

const (
	defaultReauthPrefix = "reauth"

	fieldTokenHash = "token_hash"
	fieldIssuedAt  = "issued_at"
	fieldExpiresAt = "expires_at"
)

// ReauthRepository holds the single live re-authentication token per
// account in a Redis hash. Put overwrites the whole hash in one pipeline,
// so a new token always replaces the previous one.
type ReauthRepository struct {
	client *red.Client
	prefix string
}

// NewReauthRepository constructs a repository with the provided Redis
// client and key prefix.
func NewReauthRepository(client *red.Client, keyPrefix string) *ReauthRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultReauthPrefix
	}

	return &ReauthRepository{client: client, prefix: prefix}
}

// Put replaces any existing token for the account. The key lives for
// retain, which must outlast the token expiry so Get can still report an
// expired token instead of a missing one.
func (r *ReauthRepository) Put(ctx context.Context, token domain.ReauthToken, retain time.Duration) error {
	if token.AccountID == "" {
		return errors.New("account id is required")
	}
	if retain <= 0 {
		return errors.New("retention must be positive")
	}

	key := r.key(token.AccountID)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldTokenHash: token.TokenHash,
		fieldIssuedAt:  strconv.FormatInt(token.IssuedAt.UnixNano(), 10),
		fieldExpiresAt: strconv.FormatInt(token.ExpiresAt.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, retain)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store reauth token: %w", err)
	}

	return nil
}

// Get retrieves the account's current token, expired or not.
func (r *ReauthRepository) Get(ctx context.Context, accountID string) (*domain.ReauthToken, error) {
	values, err := r.client.HGetAll(ctx, r.key(accountID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall reauth token: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	issuedAt, err := strconv.ParseInt(values[fieldIssuedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse issued_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(values[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	return &domain.ReauthToken{
		AccountID: accountID,
		TokenHash: values[fieldTokenHash],
		IssuedAt:  time.Unix(0, issuedAt).UTC(),
		ExpiresAt: time.Unix(0, expiresAt).UTC(),
	}, nil
}

// Delete removes the account's token.
func (r *ReauthRepository) Delete(ctx context.Context, accountID string) error {
	if err := r.client.Del(ctx, r.key(accountID)).Err(); err != nil {
		return fmt.Errorf("redis delete reauth token: %w", err)
	}
	return nil
}

func (r *ReauthRepository) key(accountID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, accountID)
}

var _ port.ReauthStore = (*ReauthRepository)(nil)
