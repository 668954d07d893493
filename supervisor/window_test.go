package supervisor

import (
	"testing"
	"time"
)

func TestAllowRestartWithinLimit(t *testing.T) {
	now := time.Now()
	limit := RestartLimit{MaxRestarts: 3, Interval: time.Minute}

	var history []time.Time
	for i := 0; i < 3; i++ {
		allowed, newHistory := allowRestart(now, history, limit)
		if !allowed {
			t.Fatalf("restart %d: expected allowed, history=%v", i, history)
		}
		history = newHistory
	}

	if len(history) != 3 {
		t.Fatalf("expected history length 3, got %d", len(history))
	}
}

func TestAllowRestartExceedsLimit(t *testing.T) {
	now := time.Now()
	limit := RestartLimit{MaxRestarts: 2, Interval: time.Minute}

	var history []time.Time
	_, history = allowRestart(now, history, limit)
	_, history = allowRestart(now, history, limit)

	allowed, _ := allowRestart(now, history, limit)
	if allowed {
		t.Fatal("expected third restart within the window to be denied")
	}
}

func TestAllowRestartPrunesExpiredEntries(t *testing.T) {
	now := time.Now()
	limit := RestartLimit{MaxRestarts: 1, Interval: 10 * time.Millisecond}

	stale := now.Add(-20 * time.Millisecond)
	allowed, history := allowRestart(now, []time.Time{stale}, limit)

	if !allowed {
		t.Fatal("expected the stale entry to be pruned, leaving room under the limit")
	}
	if len(history) != 1 {
		t.Fatalf("expected only the fresh entry to remain, got %d entries", len(history))
	}
}

func TestAllowRestartZeroMaxRestartsAlwaysDenies(t *testing.T) {
	allowed, _ := allowRestart(time.Now(), nil, RestartLimit{MaxRestarts: 0, Interval: time.Minute})
	if allowed {
		t.Fatal("expected MaxRestarts=0 to deny every restart")
	}
}
