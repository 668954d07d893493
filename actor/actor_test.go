package actor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewActorNormalExit(t *testing.T) {
	a := NewActor("echo", func(ctx context.Context, msg interface{}) (bool, error) {
		if msg == "stop" {
			return false, nil
		}
		return true, nil
	}, 4)

	if err := a.Receive(context.Background(), "stop"); err != nil {
		t.Fatalf("unexpected error queuing stop: %v", err)
	}

	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("actor did not terminate after behavior returned cont=false")
	}

	if a.DiedReason().Kind != Normal {
		t.Fatalf("expected Normal exit, got %v", a.DiedReason())
	}
}

func TestNewActorExceptionExit(t *testing.T) {
	boom := errors.New("boom")
	a := NewActor("cracker", func(ctx context.Context, msg interface{}) (bool, error) {
		return false, boom
	}, 4)

	if err := a.Receive(context.Background(), "anything"); err != nil {
		t.Fatalf("unexpected error queuing message: %v", err)
	}

	<-a.Done()

	reason := a.DiedReason()
	if reason.Kind != Exception {
		t.Fatalf("expected Exception exit, got %v", reason)
	}
	if reason.Message != boom.Error() {
		t.Fatalf("expected exit message %q, got %q", boom.Error(), reason.Message)
	}
}

func TestMonitorReceivesDownMessageOnce(t *testing.T) {
	a := NewActor("watched", func(ctx context.Context, msg interface{}) (bool, error) {
		return false, nil
	}, 4)

	_, downCh := a.Monitor()

	if err := a.Receive(context.Background(), "tick"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case down := <-downCh:
		if down.PID != a.PID() {
			t.Fatalf("expected down message for %v, got %v", a.PID(), down.PID)
		}
	case <-time.After(time.Second):
		t.Fatal("monitor channel never received a DownMessage")
	}
}

func TestMonitorOfAlreadyDeadActorFiresImmediately(t *testing.T) {
	a := NewActor("already-dead", func(ctx context.Context, msg interface{}) (bool, error) {
		return false, nil
	}, 4)

	if err := a.Receive(context.Background(), "die"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-a.Done()

	_, downCh := a.Monitor()
	select {
	case down := <-downCh:
		if down.Reason.Kind != Normal {
			t.Fatalf("expected Normal reason, got %v", down.Reason)
		}
	case <-time.After(time.Second):
		t.Fatal("Monitor on an already-terminated actor should deliver a DownMessage without waiting")
	}
}

func TestKillCancelsContextAndReportsKilledBy(t *testing.T) {
	a := NewActor("victim", func(ctx context.Context, msg interface{}) (bool, error) {
		<-ctx.Done()
		return true, nil
	}, 4)

	a.Kill("tester", "manual kill")
	<-a.Done()

	reason := a.DiedReason()
	if reason.Kind != KilledBy {
		t.Fatalf("expected KilledBy reason, got %v", reason)
	}
}

func TestReceiveAfterStopReturnsErrActorStopped(t *testing.T) {
	a := NewActor("stopper", func(ctx context.Context, msg interface{}) (bool, error) {
		return true, nil
	}, 4)

	if err := a.Stop(); err != nil {
		t.Fatalf("unexpected error stopping actor: %v", err)
	}

	if err := a.Receive(context.Background(), "late"); err != ErrActorStopped {
		t.Fatalf("expected ErrActorStopped, got %v", err)
	}
}
