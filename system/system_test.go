package system

import (
	"context"
	"testing"
	"time"

	"github.com/kleeedolinux/gorilix/actor"
	"github.com/kleeedolinux/gorilix/supervisor"
)

func TestSpawnActorAndWhereIs(t *testing.T) {
	sys := NewActorSystem("test-system")
	defer sys.Stop()

	received := make(chan interface{}, 1)
	ref, err := sys.SpawnActor("echo", func(ctx context.Context, msg interface{}) (bool, error) {
		received <- msg
		return true, nil
	}, 4)
	if err != nil {
		t.Fatalf("failed to spawn actor: %v", err)
	}

	if err := ref.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	select {
	case msg := <-received:
		if msg != "hello" {
			t.Fatalf("expected 'hello', got %v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("actor never received the message")
	}

	if err := sys.RegisterName("echo", ref); err != nil {
		t.Fatalf("failed to register name: %v", err)
	}

	found, ok := sys.WhereIs("echo")
	if !ok {
		t.Fatal("expected WhereIs to find the actor after RegisterName")
	}
	if found.ID() != ref.ID() {
		t.Fatalf("expected same actor ID, got %v vs %v", found.ID(), ref.ID())
	}
}

func TestSpawnActorRejectsDuplicateID(t *testing.T) {
	sys := NewActorSystem("test-system-dup")
	defer sys.Stop()

	behavior := func(ctx context.Context, msg interface{}) (bool, error) { return true, nil }
	if _, err := sys.SpawnActor("worker", behavior, 4); err != nil {
		t.Fatalf("unexpected error spawning first actor: %v", err)
	}

	if _, err := sys.SpawnActor("worker", behavior, 4); err != actor.ErrInvalidActorID {
		t.Fatalf("expected ErrInvalidActorID for duplicate spawn, got %v", err)
	}
}

func TestSpawnSupervisorAllowsAddingChildren(t *testing.T) {
	sys := NewActorSystem("test-system-sup")
	defer sys.Stop()

	strategy := supervisor.RestartOne(supervisor.RestartLimit{MaxRestarts: 3, Interval: time.Minute})
	sup, err := sys.SpawnSupervisor("nested", strategy)
	if err != nil {
		t.Fatalf("failed to spawn supervisor: %v", err)
	}

	sys.Factories().Register("test/worker", func() (supervisor.Incarnation, *supervisor.StartFailure) {
		return actor.NewActor("worker", func(ctx context.Context, msg interface{}) (bool, error) { return true, nil }, 4), nil
	})

	spec := supervisor.ChildSpec{
		Key:               "w",
		Type:              supervisor.Worker,
		RestartType:       supervisor.Permanent,
		TerminationPolicy: supervisor.DefaultTerminationPolicy(supervisor.Worker),
		Factory:           "test/worker",
	}
	res, err := supervisor.StartChild(context.Background(), sup, spec)
	if err != nil {
		t.Fatalf("failed to start child: %v", err)
	}
	if res.Kind != supervisor.StartChildAdded {
		t.Fatalf("expected child to be added, got %v", res.Kind)
	}
}

func TestStopPreventsFurtherSpawns(t *testing.T) {
	sys := NewActorSystem("test-system-stop")
	if err := sys.Stop(); err != nil {
		t.Fatalf("unexpected error stopping system: %v", err)
	}

	_, err := sys.SpawnActor("too-late", func(ctx context.Context, msg interface{}) (bool, error) { return true, nil }, 4)
	if err != ErrSystemStopped {
		t.Fatalf("expected ErrSystemStopped, got %v", err)
	}
}
