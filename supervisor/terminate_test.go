package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/kleeedolinux/gorilix/actor"
)

func TestTerminateIncarnationImmediateKills(t *testing.T) {
	behavior := func(ctx context.Context, msg interface{}) (bool, error) { return true, nil }
	inc := actor.NewActor("imm", behavior, 4)

	reason := terminateIncarnation(context.Background(), "sup", inc, ImmediateTermination())
	if reason.Kind != actor.KilledBy {
		t.Fatalf("expected KilledBy reason for immediate termination, got %v", reason)
	}
}

func TestTerminateIncarnationGracefulExit(t *testing.T) {
	behavior := func(ctx context.Context, msg interface{}) (bool, error) { return true, nil }
	inc := actor.NewActor("graceful", behavior, 4)

	reason := terminateIncarnation(context.Background(), "sup", inc, TimeoutTermination(time.Second))
	if reason.Kind != actor.Shutdown {
		t.Fatalf("expected Shutdown reason when the actor exits before the timeout, got %v", reason)
	}
}

// TestTerminateIncarnationTimeoutForcesKill exercises the fallback path:
// a child stuck processing a message past its grace period gets killed
// once the timer fires, rather than leaving the supervisor waiting
// forever for a Done that graceful Exit alone cannot produce.
func TestTerminateIncarnationTimeoutForcesKill(t *testing.T) {
	entered := make(chan struct{})
	behavior := func(ctx context.Context, msg interface{}) (bool, error) {
		if msg == "block" {
			close(entered)
			<-ctx.Done() // a well-behaved actor stops doing work once killed
		}
		return true, nil
	}
	inc := actor.NewActor("slow", behavior, 4)

	if err := inc.Receive(context.Background(), "block"); err != nil {
		t.Fatalf("unexpected error queuing block message: %v", err)
	}
	<-entered

	resultCh := make(chan actor.DiedReason, 1)
	go func() {
		resultCh <- terminateIncarnation(context.Background(), "sup", inc, TimeoutTermination(20*time.Millisecond))
	}()

	select {
	case reason := <-resultCh:
		if reason.Kind != actor.KilledBy {
			t.Fatalf("expected KilledBy reason after timeout, got %v", reason)
		}
	case <-time.After(time.Second):
		t.Fatal("terminateIncarnation did not return after the grace period elapsed")
	}
}
