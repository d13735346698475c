package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studyvault/notesdash/internal/constants"
)

func TestNewAPIRateLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		wantNil   bool
		wantBurst float64
	}{
		{name: "disabled", rate: 0, wantNil: true},
		{name: "negative", rate: -1, wantNil: true},
		{name: "default", rate: constants.APIRatePerSec, wantBurst: constants.APIBurstCapacity},
		{name: "rate above burst", rate: 50, wantBurst: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewAPIRateLimiter(tt.rate)
			if tt.wantNil {
				if rl != nil {
					t.Fatalf("NewAPIRateLimiter(%v) = %+v, want nil", tt.rate, rl)
				}
				return
			}
			if rl == nil {
				t.Fatalf("NewAPIRateLimiter(%v) = nil", tt.rate)
			}
			if rl.maxTokens != tt.wantBurst {
				t.Errorf("burst = %v, want %v", rl.maxTokens, tt.wantBurst)
			}
			if rl.GetCurrentTokens() < tt.wantBurst-0.01 {
				t.Errorf("bucket starts with %v tokens, want it full", rl.GetCurrentTokens())
			}
		})
	}
}

func TestBurstThenPaced(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("request %d of the burst was refused", i+1)
		}
	}
	if rl.tryAcquire() {
		t.Error("request past the burst was granted at once")
	}
}

func TestRefillCapsAtBurst(t *testing.T) {
	rl := NewRateLimiter(1000, 5)
	rl.Drain()
	time.Sleep(50 * time.Millisecond)
	if got := rl.GetCurrentTokens(); got > 5 {
		t.Errorf("tokens = %v, want at most 5", got)
	}
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	rl := NewRateLimiter(20, 1)
	rl.Drain()

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Wait returned after %v, want about 50ms", elapsed)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(0.1, 1)
	rl.Drain()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait = %v, want DeadlineExceeded", err)
	}
}

func TestCooldown(t *testing.T) {
	rl := NewRateLimiter(100, 10)
	if rl.CooldownRemaining() != 0 {
		t.Error("fresh limiter has a cooldown")
	}

	rl.SetCooldown(80 * time.Millisecond)
	if rl.tryAcquire() {
		t.Error("token granted during the cooldown")
	}

	// A shorter cooldown does not cut the current one
	rl.SetCooldown(time.Millisecond)
	if rl.CooldownRemaining() < 50*time.Millisecond {
		t.Errorf("cooldown shortened to %v", rl.CooldownRemaining())
	}

	time.Sleep(90 * time.Millisecond)
	if !rl.tryAcquire() {
		t.Error("token refused after the cooldown expired")
	}
}

func TestConcurrentWaitGrantsBurstOnly(t *testing.T) {
	rl := NewRateLimiter(0.001, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Wait(ctx) == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 5 {
		t.Errorf("granted %d requests, want the burst of 5", got)
	}
}
