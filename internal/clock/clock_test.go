package clock

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	clock := &RealClock{}

	before := time.Now()
	actual := clock.Now()
	after := time.Now()
	if actual.Before(before) || actual.After(after) {
		t.Errorf("RealClock.Now() returned time outside expected range: got %v, expected between %v and %v", actual, before, after)
	}

	time.Sleep(time.Millisecond)
	if elapsed := clock.Since(actual); elapsed <= 0 {
		t.Errorf("RealClock.Since() = %v, want a positive duration", elapsed)
	}
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("returns fixed time", func(t *testing.T) {
		clock := NewFakeClock(start)
		if !clock.Now().Equal(start) || !clock.Now().Equal(start) {
			t.Error("FakeClock.Now() should return a consistent time without a step")
		}
		if d := clock.Since(start); d != 0 {
			t.Errorf("Since() = %v, want 0", d)
		}
	})

	t.Run("advance accumulates", func(t *testing.T) {
		clock := NewFakeClock(start)
		clock.Advance(time.Hour)
		clock.Advance(30 * time.Minute)
		if d := clock.Since(start); d != 90*time.Minute {
			t.Errorf("Since() = %v, want 1h30m", d)
		}
	})

	t.Run("step advances after each Now", func(t *testing.T) {
		clock := NewFakeClock(start)
		clock.SetStep(2 * time.Second)

		first := clock.Now()
		if !first.Equal(start) {
			t.Errorf("first Now() = %v, want %v", first, start)
		}
		if d := clock.Since(first); d != 2*time.Second {
			t.Errorf("Since(first) = %v, want 2s", d)
		}
	})
}
