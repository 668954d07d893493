package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kleeedolinux/gorilix/actor"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

// countingFactory registers a launcher that counts how many times it has
// been invoked, so a test can assert a child actually restarted rather
// than just that the supervisor says so.
func countingFactory(factories *FactoryRegistry, id FactoryID, behavior func(starts int) actor.Behavior) *int {
	starts := new(int)
	factories.Register(id, func() (Incarnation, *StartFailure) {
		*starts++
		return actor.NewActor(string(id), behavior(*starts), 8), nil
	})
	return starts
}

func awaitLive(t *testing.T, sup *Supervisor, key string, timeout time.Duration) ChildRef {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ref, ok, err := LookupChild(context.Background(), sup, key)
		require.NoError(t, err)
		require.True(t, ok)
		if ref.Kind == RefRunning {
			return ref
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("child %q never became live within %s", key, timeout)
	return ChildRef{}
}

func TestPermanentChildRestartsOnAbnormalExit(t *testing.T) {
	factories := NewFactoryRegistry()
	starts := countingFactory(factories, "permanent/worker", func(n int) actor.Behavior {
		return func(ctx context.Context, msg interface{}) (bool, error) {
			if msg == "stop" {
				return false, nil
			}
			return true, nil
		}
	})

	strategy := RestartOne(RestartLimit{MaxRestarts: 5, Interval: time.Second})
	sup := NewSupervisor("root", strategy, factories, testLogger())

	spec := ChildSpec{Key: "w", Type: Worker, RestartType: Permanent, TerminationPolicy: DefaultTerminationPolicy(Worker), Factory: "permanent/worker"}
	res, err := StartChild(context.Background(), sup, spec)
	require.NoError(t, err)
	require.Equal(t, StartChildAdded, res.Kind)
	require.Equal(t, 1, *starts)

	first := awaitLive(t, sup, "w", time.Second)

	// End the live incarnation with an exception exit so the
	// supervisor's monitor fires and the restart engine kicks in.
	require.NoError(t, sendExitTo(sup, "w", first))

	second := awaitLive(t, sup, "w", time.Second)
	require.NotEqual(t, first.PID, second.PID, "expected a fresh incarnation after restart")
	require.Equal(t, 2, *starts)
}

func TestTemporaryChildIsRemovedNotRestarted(t *testing.T) {
	factories := NewFactoryRegistry()
	countingFactory(factories, "temp/worker", func(n int) actor.Behavior {
		return func(ctx context.Context, msg interface{}) (bool, error) { return true, nil }
	})

	strategy := RestartOne(RestartLimit{MaxRestarts: 5, Interval: time.Second})
	sup := NewSupervisor("root", strategy, factories, testLogger())

	spec := ChildSpec{Key: "t", Type: Worker, RestartType: Temporary, TerminationPolicy: DefaultTerminationPolicy(Worker), Factory: "temp/worker"}
	_, err := StartChild(context.Background(), sup, spec)
	require.NoError(t, err)

	ref := awaitLive(t, sup, "t", time.Second)
	require.NoError(t, sendExitTo(sup, "t", ref))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		_, ok, err := LookupChild(context.Background(), sup, "t")
		require.NoError(t, err)
		if !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected temporary child spec to be removed after its incarnation died")
}

func TestIntensityExceededEscalatesAndStopsSupervisor(t *testing.T) {
	factories := NewFactoryRegistry()
	crashNow := make(chan struct{}, 100)
	countingFactory(factories, "flapping/worker", func(n int) actor.Behavior {
		return func(ctx context.Context, msg interface{}) (bool, error) {
			select {
			case <-crashNow:
				return false, errors.New("boom")
			default:
			}
			return true, nil
		}
	})

	strategy := RestartOne(RestartLimit{MaxRestarts: 1, Interval: time.Minute})
	sup := NewSupervisor("root", strategy, factories, testLogger())

	spec := ChildSpec{Key: "f", Type: Worker, RestartType: Permanent, TerminationPolicy: DefaultTerminationPolicy(Worker), Factory: "flapping/worker"}
	_, err := StartChild(context.Background(), sup, spec)
	require.NoError(t, err)

	ref := awaitLive(t, sup, "f", time.Second)
	require.NoError(t, sendExitTo(sup, "f", ref))
	ref2 := awaitLive(t, sup, "f", time.Second)
	require.NoError(t, sendExitTo(sup, "f", ref2))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !sup.IsRunning() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the supervisor to exit after exceeding restart intensity")
}

// TestRestartAllSequentialRestartsSiblingsInDirectionOrder drives
// RestartAll(RestartEach(RightToLeft)) through the real Supervisor actor
// end to end: failing one sibling must terminate and restart every
// Permanent sibling in reverse-insertion order, skip the Temporary one
// (removing its spec instead), and leave every restarted sibling with a
// fresh PID.
func TestRestartAllSequentialRestartsSiblingsInDirectionOrder(t *testing.T) {
	factories := NewFactoryRegistry()

	var mu sync.Mutex
	var order []string
	simpleBehavior := func(ctx context.Context, msg interface{}) (bool, error) {
		if msg == "fail" {
			return false, errors.New("induced failure")
		}
		return true, nil
	}
	registerOrdered := func(key string) {
		factories.Register(FactoryID(key), func() (Incarnation, *StartFailure) {
			mu.Lock()
			order = append(order, key)
			mu.Unlock()
			return actor.NewActor(key, simpleBehavior, 8), nil
		})
	}
	registerOrdered("a")
	registerOrdered("b")
	registerOrdered("c")
	registerOrdered("t")

	strategy := RestartAll(RestartLimit{MaxRestarts: 5, Interval: time.Second}, RestartEach(RightToLeft))
	specs := []ChildSpec{
		{Key: "a", Type: Worker, RestartType: Permanent, TerminationPolicy: DefaultTerminationPolicy(Worker), Factory: "a"},
		{Key: "b", Type: Worker, RestartType: Permanent, TerminationPolicy: DefaultTerminationPolicy(Worker), Factory: "b"},
		{Key: "c", Type: Worker, RestartType: Permanent, TerminationPolicy: DefaultTerminationPolicy(Worker), Factory: "c"},
		{Key: "t", Type: Worker, RestartType: Temporary, TerminationPolicy: DefaultTerminationPolicy(Worker), Factory: "t"},
	}
	sup, err := StartSupervisor("root", strategy, factories, specs, testLogger())
	require.NoError(t, err)

	beforeA := awaitLive(t, sup, "a", time.Second)
	beforeC := awaitLive(t, sup, "c", time.Second)
	ref := awaitLive(t, sup, "b", time.Second)

	require.NoError(t, sendExitTo(sup, "b", ref))

	// "a" is last in RightToLeft sequential order, so waiting for its fresh
	// PID means the whole restart sequence has already completed.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		afterA, ok, err := LookupChild(context.Background(), sup, "a")
		require.NoError(t, err)
		if ok && afterA.Kind == RefRunning && afterA.PID != beforeA.PID {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	afterA, ok, err := LookupChild(context.Background(), sup, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, beforeA.PID, afterA.PID, "expected sibling a to receive a fresh incarnation")

	afterC, ok, err := LookupChild(context.Background(), sup, "c")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, beforeC.PID, afterC.PID, "expected sibling c to receive a fresh incarnation")

	_, ok, err = LookupChild(context.Background(), sup, "t")
	require.NoError(t, err)
	require.False(t, ok, "expected the Temporary sibling to be removed rather than restarted")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"a", "b", "c", "t", "c", "b", "a"}, order,
		"expected RestartEach(RightToLeft) to restart c, then b, then a, in that order")
}

// sendExitTo reaches into the supervisor's own live-incarnation map
// (this test file lives in package supervisor) and asks the actor
// system to deliver an exception exit to it directly, the same way an
// unhandled error returned from a real behavior would terminate the
// actor and notify its monitor.
func sendExitTo(sup *Supervisor, key string, ref ChildRef) error {
	inc, ok := sup.live[key]
	if !ok {
		return errors.New("no live incarnation for " + key)
	}
	return inc.Exit(context.Background(), actor.ExceptionExit("induced failure"))
}
