package timeutil_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rohmanhakim/scrapecache/pkg/timeutil"
)

func TestMaxDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		want      time.Duration
	}{
		{
			name:      "empty slice",
			durations: []time.Duration{},
			want:      0,
		},
		{
			name:      "single element",
			durations: []time.Duration{3 * time.Second},
			want:      3 * time.Second,
		},
		{
			name:      "largest in the middle",
			durations: []time.Duration{time.Second, 10 * time.Second, 2 * time.Second},
			want:      10 * time.Second,
		},
		{
			name:      "all zero",
			durations: []time.Duration{0, 0, 0},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeutil.MaxDuration(tt.durations)
			if got != tt.want {
				t.Errorf("MaxDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExponentialBackoffDelay_Growth(t *testing.T) {
	param := timeutil.NewBackoffParam(1*time.Second, 2.0, 30*time.Second)
	rng := rand.New(rand.NewSource(42))

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 1 * time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 4, want: 8 * time.Second},
		{attempt: 5, want: 16 * time.Second},
		// 32s would exceed the cap
		{attempt: 6, want: 30 * time.Second},
		{attempt: 10, want: 30 * time.Second},
	}

	for _, tt := range tests {
		// jitter disabled for deterministic assertions
		got := timeutil.ExponentialBackoffDelay(tt.attempt, 0, *rng, param)
		if got != tt.want {
			t.Errorf("attempt %d: delay = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffDelay_ZeroAttemptClamped(t *testing.T) {
	param := timeutil.NewBackoffParam(1*time.Second, 2.0, 30*time.Second)
	rng := rand.New(rand.NewSource(42))

	got := timeutil.ExponentialBackoffDelay(0, 0, *rng, param)
	if got != 1*time.Second {
		t.Errorf("attempt 0 clamped delay = %v, want 1s", got)
	}
}

func TestExponentialBackoffDelay_JitterBounded(t *testing.T) {
	param := timeutil.NewBackoffParam(1*time.Second, 2.0, 30*time.Second)
	jitter := 500 * time.Millisecond

	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := timeutil.ExponentialBackoffDelay(1, jitter, *rng, param)
		if got < 1*time.Second || got >= 1*time.Second+jitter {
			t.Errorf("seed %d: delay %v outside [1s, 1.5s)", seed, got)
		}
	}
}
