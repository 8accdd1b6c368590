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
	defaultResetPrefix = "reset"

	fieldAccountID  = "account_id"
	fieldQuestionID = "question_id"
	fieldState      = "state"
	fieldAttempts   = "attempts"
	fieldCreatedAt  = "created_at"
	fieldFlowExpiry = "flow_expires_at"
)

// ResetFlowRepository persists password reset flow state in Redis hashes
// keyed by the opaque flow identifier. Abandoned flows disappear when the
// key TTL fires; no sweeper is needed.
type ResetFlowRepository struct {
	client *red.Client
	prefix string
}

// NewResetFlowRepository constructs a repository with the provided Redis
// client and key prefix.
func NewResetFlowRepository(client *red.Client, keyPrefix string) *ResetFlowRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultResetPrefix
	}

	return &ResetFlowRepository{client: client, prefix: prefix}
}

// Create stores a new flow with the supplied TTL. Decoy flows are stored
// the same way as real ones so probing cannot tell them apart by timing.
func (r *ResetFlowRepository) Create(ctx context.Context, flow domain.ResetFlow, ttl time.Duration) error {
	if flow.ID == "" {
		return errors.New("flow id is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(flow.ID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldAccountID:  flow.AccountID,
		fieldQuestionID: strconv.Itoa(flow.QuestionID),
		fieldState:      string(flow.State),
		fieldAttempts:   strconv.Itoa(flow.Attempts),
		fieldCreatedAt:  strconv.FormatInt(flow.CreatedAt.UnixNano(), 10),
		fieldFlowExpiry: strconv.FormatInt(flow.ExpiresAt.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store reset flow: %w", err)
	}

	return nil
}

// Get retrieves a flow by identifier.
func (r *ResetFlowRepository) Get(ctx context.Context, flowID string) (*domain.ResetFlow, error) {
	values, err := r.client.HGetAll(ctx, r.key(flowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall reset flow: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	questionID, err := strconv.Atoi(values[fieldQuestionID])
	if err != nil {
		return nil, fmt.Errorf("parse question_id: %w", err)
	}
	attempts, err := strconv.Atoi(values[fieldAttempts])
	if err != nil {
		return nil, fmt.Errorf("parse attempts: %w", err)
	}
	createdAt, err := strconv.ParseInt(values[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(values[fieldFlowExpiry], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse flow_expires_at: %w", err)
	}

	return &domain.ResetFlow{
		ID:         flowID,
		AccountID:  values[fieldAccountID],
		QuestionID: questionID,
		State:      domain.ResetFlowState(values[fieldState]),
		Attempts:   attempts,
		CreatedAt:  time.Unix(0, createdAt).UTC(),
		ExpiresAt:  time.Unix(0, expiresAt).UTC(),
	}, nil
}

// IncrementAttempts bumps the answer attempt counter and returns the new
// value.
func (r *ResetFlowRepository) IncrementAttempts(ctx context.Context, flowID string) (int, error) {
	key := r.key(flowID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists reset flow: %w", err)
	}
	if exists == 0 {
		return 0, repository.ErrNotFound
	}

	attempts, err := r.client.HIncrBy(ctx, key, fieldAttempts, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hincrby reset flow: %w", err)
	}

	return int(attempts), nil
}

// MarkAnswered advances the flow to the answered state.
func (r *ResetFlowRepository) MarkAnswered(ctx context.Context, flowID string) error {
	key := r.key(flowID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis exists reset flow: %w", err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}

	if err := r.client.HSet(ctx, key, fieldState, string(domain.ResetStateAnswered)).Err(); err != nil {
		return fmt.Errorf("redis mark reset flow answered: %w", err)
	}

	return nil
}

// Consume removes the flow so it cannot complete twice.
func (r *ResetFlowRepository) Consume(ctx context.Context, flowID string) error {
	removed, err := r.client.Del(ctx, r.key(flowID)).Result()
	if err != nil {
		return fmt.Errorf("redis delete reset flow: %w", err)
	}
	if removed == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ResetFlowRepository) key(flowID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, flowID)
}

var _ port.ResetFlowStore = (*ResetFlowRepository)(nil)
