package breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/scrapecache/pkg/breaker"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

// depError stands in for any classified failure from a wrapped dependency.
type depError struct{}

func (e *depError) Error() string              { return "dependency failed" }
func (e *depError) Severity() failure.Severity { return failure.SeverityRecoverable }

// fakeClock lets tests advance time explicitly.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type transitionRecord struct {
	from breaker.State
	to   breaker.State
}

type observerSpy struct {
	transitions []transitionRecord
}

func (o *observerSpy) RecordTransition(name string, from breaker.State, to breaker.State) {
	o.transitions = append(o.transitions, transitionRecord{from: from, to: to})
}

func failingCall() (string, failure.ClassifiedError) {
	return "", &depError{}
}

func succeedingCall() (string, failure.ClassifiedError) {
	return "ok", nil
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	b := breaker.New("redis", 3, 30*time.Second, breaker.WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		_, err := breaker.Execute(b, failingCall)
		if err == nil {
			t.Fatalf("call %d: expected dependency error", i+1)
		}
	}

	if b.State() != breaker.StateOpen {
		t.Errorf("state after 3 failures = %v, want open", b.State())
	}
}

func TestBreaker_RejectsWithoutInvokingWhileOpen(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	b := breaker.New("redis", 3, 30*time.Second, breaker.WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		breaker.Execute(b, failingCall)
	}

	invoked := false
	_, err := breaker.Execute(b, func() (string, failure.ClassifiedError) {
		invoked = true
		return "", nil
	})

	if invoked {
		t.Error("wrapped function invoked while circuit open")
	}
	var berr *breaker.BreakerError
	if !errors.As(err, &berr) {
		t.Fatalf("error = %v, want BreakerError", err)
	}
	if berr.Cause != breaker.ErrCauseCircuitOpen {
		t.Errorf("cause = %q, want %q", berr.Cause, breaker.ErrCauseCircuitOpen)
	}
}

func TestBreaker_HalfOpenProbeSuccessCloses(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	b := breaker.New("redis", 3, 30*time.Second, breaker.WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		breaker.Execute(b, failingCall)
	}

	clock.Advance(31 * time.Second)

	result, err := breaker.Execute(b, succeedingCall)
	if err != nil {
		t.Fatalf("probe call error = %v", err)
	}
	if result != "ok" {
		t.Errorf("probe result = %q, want %q", result, "ok")
	}
	if b.State() != breaker.StateClosed {
		t.Errorf("state after successful probe = %v, want closed", b.State())
	}
	if b.FailureCount() != 0 {
		t.Errorf("failure count after successful probe = %d, want 0", b.FailureCount())
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	b := breaker.New("redis", 3, 30*time.Second, breaker.WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		breaker.Execute(b, failingCall)
	}

	clock.Advance(31 * time.Second)

	_, err := breaker.Execute(b, failingCall)
	if err == nil {
		t.Fatal("probe call expected dependency error")
	}
	if b.State() != breaker.StateOpen {
		t.Errorf("state after failed probe = %v, want open", b.State())
	}

	// the failed probe restarts the recovery timeout
	clock.Advance(15 * time.Second)
	invoked := false
	breaker.Execute(b, func() (string, failure.ClassifiedError) {
		invoked = true
		return "", nil
	})
	if invoked {
		t.Error("wrapped function invoked before restarted recovery timeout elapsed")
	}
}

func TestBreaker_SuccessResetsConsecutiveCount(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	b := breaker.New("redis", 3, 30*time.Second, breaker.WithClock(clock.Now))

	breaker.Execute(b, failingCall)
	breaker.Execute(b, failingCall)
	breaker.Execute(b, succeedingCall)
	breaker.Execute(b, failingCall)
	breaker.Execute(b, failingCall)

	if b.State() != breaker.StateClosed {
		t.Errorf("state = %v, want closed (failures were not consecutive)", b.State())
	}
	if b.FailureCount() != 2 {
		t.Errorf("failure count = %d, want 2", b.FailureCount())
	}
}

func TestBreaker_ObserverSeesTransitions(t *testing.T) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	spy := &observerSpy{}
	b := breaker.New("redis", 2, 30*time.Second,
		breaker.WithClock(clock.Now),
		breaker.WithObserver(spy),
	)

	breaker.Execute(b, failingCall)
	breaker.Execute(b, failingCall) // closed -> open
	clock.Advance(31 * time.Second)
	breaker.Execute(b, succeedingCall) // open -> half-open -> closed

	want := []transitionRecord{
		{from: breaker.StateClosed, to: breaker.StateOpen},
		{from: breaker.StateOpen, to: breaker.StateHalfOpen},
		{from: breaker.StateHalfOpen, to: breaker.StateClosed},
	}
	if len(spy.transitions) != len(want) {
		t.Fatalf("recorded %d transitions, want %d", len(spy.transitions), len(want))
	}
	for i, tr := range want {
		if spy.transitions[i] != tr {
			t.Errorf("transition %d = %+v, want %+v", i, spy.transitions[i], tr)
		}
	}
}
