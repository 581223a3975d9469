package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitFirstCallDoesNotBlock(t *testing.T) {
	limiter := New(time.Hour, 2*time.Hour)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("first Wait blocked for %v", elapsed)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	limiter := New(time.Hour, 2*time.Hour)

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestCalculateDelayBounds(t *testing.T) {
	limiter := New(2*time.Second, 8*time.Second)

	for i := 0; i < 100; i++ {
		delay := limiter.calculateDelay()
		if delay < 2*time.Second || delay >= 8*time.Second {
			t.Fatalf("delay %v outside [2s, 8s)", delay)
		}
	}
}

func TestCalculateDelayEqualBounds(t *testing.T) {
	limiter := New(3*time.Second, 3*time.Second)

	if delay := limiter.calculateDelay(); delay != 3*time.Second {
		t.Errorf("expected 3s, got %v", delay)
	}
}
