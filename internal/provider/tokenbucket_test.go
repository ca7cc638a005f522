package provider

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketAllowsBurst(t *testing.T) {
	bucket := NewTokenBucket(2, time.Minute)
	ctx := context.Background()

	start := time.Now()
	if err := bucket.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bucket.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Fatalf("burst waits should return immediately")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	bucket := NewTokenBucket(1, 5*time.Millisecond)
	ctx := context.Background()

	if err := bucket.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := bucket.Wait(ctx); err != nil {
		t.Fatalf("expected token after refill, got %v", err)
	}
}

func TestTokenBucketHonorsContext(t *testing.T) {
	bucket := NewTokenBucket(1, time.Second)
	ctx := context.Background()
	_ = bucket.Wait(ctx)

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := bucket.Wait(timeoutCtx); err == nil {
		t.Fatal("expected context deadline error")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatalf("wait should stop after context cancellation")
	}
}
