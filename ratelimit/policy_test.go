package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-deliverect/core"
)

const testHost = "api.deliverect.com"

func fixedPolicy(now *time.Time) (*AdaptivePolicy, *MemoryStateStore) {
	store := NewMemoryStateStore()
	policy := NewAdaptivePolicy(store)
	policy.Now = func() time.Time { return *now }
	return policy, store
}

func TestAdaptivePolicy_BeforeCallAllowsWhenNoState(t *testing.T) {
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	if err := policy.BeforeCall(context.Background(), testHost); err != nil {
		t.Fatalf("expected no error when no state exists, got %v", err)
	}
}

func TestAdaptivePolicy_AfterCallParsesHeaders(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	policy, store := fixedPolicy(&now)

	err := policy.AfterCall(context.Background(), "API.Deliverect.com", http.StatusOK, map[string]string{
		"X-RateLimit-Limit":     "500",
		"X-RateLimit-Remaining": "499",
		"X-RateLimit-Reset":     "1700000045",
	})
	if err != nil {
		t.Fatalf("after call: %v", err)
	}

	state, err := store.Get(context.Background(), testHost)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Limit != 500 || state.Remaining != 499 {
		t.Fatalf("unexpected limit state %+v", state)
	}
	if state.ResetAt == nil || !state.ResetAt.Equal(now.Add(45*time.Second)) {
		t.Fatalf("unexpected reset at %+v", state.ResetAt)
	}
	if err := policy.BeforeCall(context.Background(), testHost); err != nil {
		t.Fatalf("expected call allowed with remaining budget, got %v", err)
	}
}

func TestAdaptivePolicy_BlocksWhenThrottleWindowIsActive(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	policy, store := fixedPolicy(&now)

	until := now.Add(20 * time.Second)
	if err := store.Upsert(context.Background(), State{Key: testHost, ThrottledUntil: &until}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	err := policy.BeforeCall(context.Background(), testHost)
	var throttled ThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("expected ThrottledError, got %T", err)
	}
	if throttled.RetryAfter != 20*time.Second {
		t.Fatalf("expected 20s retry after, got %s", throttled.RetryAfter)
	}

	now = now.Add(21 * time.Second)
	if err := policy.BeforeCall(context.Background(), testHost); err != nil {
		t.Fatalf("expected call allowed after window, got %v", err)
	}
}

func TestAdaptivePolicy_BlocksUntilResetWhenBudgetExhausted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	policy, _ := fixedPolicy(&now)

	if err := policy.AfterCall(context.Background(), testHost, http.StatusOK, map[string]string{
		"X-RateLimit-Remaining": "0",
		"X-RateLimit-Reset":     "1700000030",
	}); err != nil {
		t.Fatalf("after call: %v", err)
	}
	if err := policy.BeforeCall(context.Background(), testHost); err == nil {
		t.Fatalf("expected exhausted budget to throttle")
	}
}

func TestAdaptivePolicy_AfterCall429UsesRetryAfter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	policy, store := fixedPolicy(&now)

	if err := policy.AfterCall(context.Background(), testHost, http.StatusTooManyRequests, map[string]string{
		"Retry-After": "10",
	}); err != nil {
		t.Fatalf("after call throttled: %v", err)
	}

	state, err := store.Get(context.Background(), testHost)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Attempts != 1 {
		t.Fatalf("expected attempts 1, got %d", state.Attempts)
	}
	if state.ThrottledUntil == nil || state.ThrottledUntil.Sub(now) != 10*time.Second {
		t.Fatalf("expected throttled window of 10s, got %+v", state.ThrottledUntil)
	}
}

func TestAdaptivePolicy_AdaptiveBackoffWithoutRetryAfter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	policy, store := fixedPolicy(&now)
	policy.InitialBackoff = 2 * time.Second
	policy.MaxBackoff = 30 * time.Second

	if err := policy.AfterCall(context.Background(), testHost, http.StatusTooManyRequests, nil); err != nil {
		t.Fatalf("first throttled call: %v", err)
	}
	now = now.Add(3 * time.Second)
	if err := policy.AfterCall(context.Background(), testHost, http.StatusTooManyRequests, nil); err != nil {
		t.Fatalf("second throttled call: %v", err)
	}

	state, err := store.Get(context.Background(), testHost)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Attempts != 2 {
		t.Fatalf("expected attempts 2, got %d", state.Attempts)
	}
	if got := state.ThrottledUntil.Sub(now); got != 4*time.Second {
		t.Fatalf("expected adaptive delay of 4s, got %s", got)
	}
}

func TestAdaptivePolicy_ResetsAttemptsOnSuccessfulCall(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	policy, store := fixedPolicy(&now)

	until := now.Add(10 * time.Second)
	if err := store.Upsert(context.Background(), State{Key: testHost, Attempts: 3, ThrottledUntil: &until}); err != nil {
		t.Fatalf("seed throttled state: %v", err)
	}
	now = now.Add(12 * time.Second)
	if err := policy.AfterCall(context.Background(), testHost, http.StatusOK, nil); err != nil {
		t.Fatalf("after successful call: %v", err)
	}

	state, err := store.Get(context.Background(), testHost)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Attempts != 0 || state.ThrottledUntil != nil {
		t.Fatalf("expected throttle state cleared, got %+v", state)
	}
}

func TestThrottledError_ToServiceError(t *testing.T) {
	mapped := ThrottledError{Key: testHost, RetryAfter: 3 * time.Second}.ToServiceError()
	if mapped.TextCode != core.ErrorRateLimited {
		t.Fatalf("expected %q text code, got %q", core.ErrorRateLimited, mapped.TextCode)
	}
	if mapped.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status code 429, got %d", mapped.Code)
	}
	if mapped.Metadata["retry_after_ms"] != int64(3000) {
		t.Fatalf("unexpected metadata %#v", mapped.Metadata)
	}
}
