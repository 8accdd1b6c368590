package redis

import (
	"context"
	"testing"
	"time"
)

func newRateLimitRepo(t *testing.T) *RateLimitRepository {
	t.Helper()

	client, _ := newTestRedis(t)
	return NewRateLimitRepository(client, SlidingWindowConfig{
		KeyPrefix: "orderdesk:ratelimit",
		TTL:       time.Hour,
	})
}

func TestRateLimitRepository_CountAttemptsWithinWindow(t *testing.T) {
	repo := newRateLimitRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 30 * time.Second, 2 * time.Minute, 10 * time.Minute} {
		if err := repo.RecordAttempt(ctx, "login:acct-1", base.Add(offset)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "login:acct-1", 5*time.Minute, base.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts inside window, got %d", count)
	}
}

func TestRateLimitRepository_IdentifiersAreIndependent(t *testing.T) {
	repo := newRateLimitRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := repo.RecordAttempt(ctx, "login:acct-1", base); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "login:acct-2", 5*time.Minute, base)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 attempts for other identifier, got %d", count)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	repo := newRateLimitRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{-20 * time.Minute, -10 * time.Minute, -1 * time.Minute} {
		if err := repo.RecordAttempt(ctx, "login:acct-1", base.Add(offset)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	if err := repo.TrimWindow(ctx, "login:acct-1", 5*time.Minute, base); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "login:acct-1", time.Hour, base)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt after trim, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	repo := newRateLimitRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	first := base.Add(-3 * time.Minute)
	for _, at := range []time.Time{first, base.Add(-1 * time.Minute), base} {
		if err := repo.RecordAttempt(ctx, "login:acct-1", at); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	oldest, ok, err := repo.OldestAttempt(ctx, "login:acct-1", 5*time.Minute, base)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected an attempt inside the window")
	}
	if !oldest.Equal(first) {
		t.Fatalf("expected oldest %v, got %v", first, oldest)
	}
}

func TestRateLimitRepository_OldestAttemptEmpty(t *testing.T) {
	repo := newRateLimitRepo(t)

	oldest, ok, err := repo.OldestAttempt(context.Background(), "login:acct-1", 5*time.Minute, time.Now())
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if ok || !oldest.IsZero() {
		t.Fatalf("expected no attempt, got %v ok=%v", oldest, ok)
	}
}

func TestRateLimitRepository_WindowValidation(t *testing.T) {
	repo := newRateLimitRepo(t)
	ctx := context.Background()

	if _, err := repo.CountAttempts(ctx, "login:acct-1", 0, time.Now()); err == nil {
		t.Fatal("expected error for non-positive count window")
	}
	if err := repo.TrimWindow(ctx, "login:acct-1", -time.Minute, time.Now()); err == nil {
		t.Fatal("expected error for non-positive trim window")
	}
	if _, _, err := repo.OldestAttempt(ctx, "login:acct-1", 0, time.Now()); err == nil {
		t.Fatal("expected error for non-positive oldest window")
	}
}

func TestRateLimitRepository_TTLExpiry(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{
		KeyPrefix: "orderdesk:ratelimit",
		TTL:       time.Minute,
	})
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := repo.RecordAttempt(ctx, "login:acct-1", base); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	count, err := repo.CountAttempts(ctx, "login:acct-1", time.Hour, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected key expired, got %d attempts", count)
	}
}
