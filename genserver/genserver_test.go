package genserver

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type counterMsg struct {
	action string
	amount int
}

func counterInit(ctx context.Context, args interface{}) (interface{}, error) {
	return 0, nil
}

func counterCall(ctx context.Context, message interface{}, state interface{}) (interface{}, interface{}, error) {
	value := state.(int)
	msg, ok := message.(counterMsg)
	if !ok {
		return nil, value, fmt.Errorf("invalid message type")
	}
	switch msg.action {
	case "get":
		return value, value, nil
	case "increment":
		return value + msg.amount, value + msg.amount, nil
	default:
		return nil, value, fmt.Errorf("unknown action")
	}
}

func counterCast(ctx context.Context, message interface{}, state interface{}) (interface{}, error) {
	value := state.(int)
	msg, ok := message.(counterMsg)
	if !ok {
		return value, nil
	}
	if msg.action == "increment" {
		return value + msg.amount, nil
	}
	return value, nil
}

func TestCallHandlerRoundTrips(t *testing.T) {
	gs, ref, err := Start("counter", Options{
		InitFunc:    counterInit,
		CallHandler: counterCall,
		CastHandler: counterCast,
		BufferSize:  4,
	})
	if err != nil {
		t.Fatalf("failed to start genserver: %v", err)
	}
	defer gs.Stop()

	ctx := context.Background()
	result, err := MakeCallSync(ctx, ref, counterMsg{action: "get"}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error calling: %v", err)
	}
	if result.(int) != 0 {
		t.Fatalf("expected initial value 0, got %v", result)
	}

	result, err = MakeCallSync(ctx, ref, counterMsg{action: "increment", amount: 5}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error calling: %v", err)
	}
	if result.(int) != 5 {
		t.Fatalf("expected 5 after increment, got %v", result)
	}
}

func TestCastHandlerUpdatesStateWithoutReply(t *testing.T) {
	gs, ref, err := Start("counter-cast", Options{
		InitFunc:    counterInit,
		CallHandler: counterCall,
		CastHandler: counterCast,
		BufferSize:  4,
	})
	if err != nil {
		t.Fatalf("failed to start genserver: %v", err)
	}
	defer gs.Stop()

	ctx := context.Background()
	if err := MakeCast(ctx, ref, counterMsg{action: "increment", amount: 10}); err != nil {
		t.Fatalf("unexpected error casting: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		result, err := MakeCallSync(ctx, ref, counterMsg{action: "get"}, time.Second)
		if err != nil {
			t.Fatalf("unexpected error calling: %v", err)
		}
		if result.(int) == 10 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("cast never applied to state within deadline")
}

func TestCallHandlerErrorEndsGenServer(t *testing.T) {
	gs, ref, err := Start("counter-err", Options{
		InitFunc:    counterInit,
		CallHandler: counterCall,
		CastHandler: counterCast,
		BufferSize:  4,
	})
	if err != nil {
		t.Fatalf("failed to start genserver: %v", err)
	}

	ctx := context.Background()
	_, err = MakeCallSync(ctx, ref, counterMsg{action: "bogus"}, time.Second)
	if err == nil {
		t.Fatal("expected the call timeout error once the handler error ends the actor")
	}

	select {
	case <-gs.Done():
	case <-time.After(time.Second):
		t.Fatal("genserver did not terminate after its call handler returned an error")
	}
	if gs.DiedReason().Kind.String() != "exception" {
		t.Fatalf("expected exception exit, got %v", gs.DiedReason())
	}
}
