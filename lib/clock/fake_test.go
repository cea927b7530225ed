// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNow(t *testing.T) {
	start := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	fake.Advance(90 * time.Second)
	if got := fake.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now() after Advance = %v, want %v", got, start.Add(90*time.Second))
	}
}

func TestFakeAfter(t *testing.T) {
	fake := Fake(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	ch := fake.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("After channel fired before Advance")
	default:
	}

	fake.Advance(time.Minute)
	select {
	case <-ch:
	default:
		t.Fatal("After channel did not fire after Advance past deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	fake := Fake(time.Now())
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeTicker(t *testing.T) {
	fake := Fake(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	ticker := fake.NewTicker(time.Minute)
	defer ticker.Stop()

	fake.Advance(time.Minute)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	// A second interval fires again.
	fake.Advance(time.Minute)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire on second interval")
	}
}

func TestFakeWaiters(t *testing.T) {
	fake := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if got := fake.Waiters(); got != 0 {
		t.Fatalf("initial waiters: got %d, want 0", got)
	}

	fake.After(time.Second)
	ticker := fake.NewTicker(time.Second)
	if got := fake.Waiters(); got != 2 {
		t.Fatalf("waiters after registration: got %d, want 2", got)
	}

	// The one-shot waiter fires and is dropped; the ticker persists.
	fake.Advance(time.Second)
	if got := fake.Waiters(); got != 1 {
		t.Fatalf("waiters after advance: got %d, want 1", got)
	}

	ticker.Stop()
	if got := fake.Waiters(); got != 0 {
		t.Fatalf("waiters after stop: got %d, want 0", got)
	}
}

func TestFakeTickerStop(t *testing.T) {
	fake := Fake(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	ticker := fake.NewTicker(time.Minute)
	ticker.Stop()

	fake.Advance(5 * time.Minute)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeTickerDropsWhenBehind(t *testing.T) {
	fake := Fake(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	ticker := fake.NewTicker(time.Minute)
	defer ticker.Stop()

	// Three intervals with no consumer: capacity 1, so exactly one
	// tick is pending.
	fake.Advance(3 * time.Minute)

	received := 0
	for {
		select {
		case <-ticker.C:
			received++
			continue
		default:
		}
		break
	}
	if received != 1 {
		t.Errorf("received %d ticks, want 1 (extra ticks must be dropped)", received)
	}
}
