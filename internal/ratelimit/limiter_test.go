package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T, limit int64, window time.Duration) *Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(mr.Addr(), limit, window)
}

func TestAllowWithinLimit(t *testing.T) {
	l := newTestLimiter(t, 3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(t.Context(), "CASH4WORK")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Errorf("call %d: expected allowed within limit", i+1)
		}
	}
}

func TestAllowExceedsLimit(t *testing.T) {
	l := newTestLimiter(t, 2, time.Minute)
	defer l.Close()

	ctx := t.Context()
	for i := 0; i < 2; i++ {
		if allowed, err := l.Allow(ctx, "CASH4WORK"); err != nil || !allowed {
			t.Fatalf("call %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}

	allowed, err := l.Allow(ctx, "CASH4WORK")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Errorf("expected the third call to exceed the limit of 2")
	}
}

func TestAllowIsolatesByProgramMnemonic(t *testing.T) {
	l := newTestLimiter(t, 1, time.Minute)
	defer l.Close()

	ctx := t.Context()
	if allowed, err := l.Allow(ctx, "PROGRAM_A"); err != nil || !allowed {
		t.Fatalf("PROGRAM_A: allowed=%v err=%v", allowed, err)
	}
	if allowed, err := l.Allow(ctx, "PROGRAM_B"); err != nil || !allowed {
		t.Fatalf("PROGRAM_B should have its own counter: allowed=%v err=%v", allowed, err)
	}
}
