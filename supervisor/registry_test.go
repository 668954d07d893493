package supervisor

import (
	"testing"

	"github.com/kleeedolinux/gorilix/actor"
)

func spec(key string) ChildSpec {
	return ChildSpec{Key: key, Type: Worker, RestartType: Permanent}
}

func TestChildRegistryInsertAndGet(t *testing.T) {
	r := newChildRegistry()

	if err := r.insert(spec("a"), StoppedRef()); err != nil {
		t.Fatalf("unexpected error inserting a: %v", err)
	}

	e, ok := r.get("a")
	if !ok {
		t.Fatal("expected key \"a\" to be present")
	}
	if e.spec.Key != "a" {
		t.Fatalf("expected spec key \"a\", got %q", e.spec.Key)
	}
}

func TestChildRegistryRejectsDuplicateKey(t *testing.T) {
	r := newChildRegistry()
	if err := r.insert(spec("a"), StoppedRef()); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}

	err := r.insert(spec("a"), StoppedRef())
	if err == nil {
		t.Fatal("expected duplicate key insert to fail")
	}
	if _, ok := err.(*DuplicateKeyError); !ok {
		t.Fatalf("expected *DuplicateKeyError, got %T", err)
	}
}

func TestChildRegistryPreservesInsertionOrder(t *testing.T) {
	r := newChildRegistry()
	keys := []string{"c", "a", "b"}
	for _, k := range keys {
		if err := r.insert(spec(k), StoppedRef()); err != nil {
			t.Fatalf("insert %q: %v", k, err)
		}
	}

	got := r.keysDirected(LeftToRight)
	for i, k := range keys {
		if got[i] != k {
			t.Fatalf("expected insertion order %v, got %v", keys, got)
		}
	}

	reversed := r.keysDirected(RightToLeft)
	for i, j := 0, len(keys)-1; i < len(keys); i, j = i+1, j-1 {
		if reversed[i] != keys[j] {
			t.Fatalf("expected reverse insertion order, got %v", reversed)
		}
	}
}

func TestChildRegistryRemoveUpdatesOrderAndMap(t *testing.T) {
	r := newChildRegistry()
	for _, k := range []string{"a", "b", "c"} {
		_ = r.insert(spec(k), StoppedRef())
	}

	r.remove("b")

	if _, ok := r.get("b"); ok {
		t.Fatal("expected \"b\" to be gone after remove")
	}
	if r.len() != 2 {
		t.Fatalf("expected length 2 after remove, got %d", r.len())
	}

	got := r.keysDirected(LeftToRight)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("expected order [a c] after removing b, got %v", got)
	}
}

func TestChildRegistryUpdateRefAndSpec(t *testing.T) {
	r := newChildRegistry()
	_ = r.insert(spec("a"), StoppedRef())

	if ok := r.updateRef("a", RunningRef(actor.PID{ID: "a", Incarnation: "1"})); !ok {
		t.Fatal("expected updateRef on existing key to succeed")
	}
	e, _ := r.get("a")
	if e.ref.Kind != RefRunning {
		t.Fatalf("expected RefRunning after update, got %v", e.ref.Kind)
	}

	updated := spec("a")
	updated.RestartType = Temporary
	if ok := r.updateSpec("a", updated); !ok {
		t.Fatal("expected updateSpec on existing key to succeed")
	}
	e, _ = r.get("a")
	if e.spec.RestartType != Temporary {
		t.Fatalf("expected RestartType Temporary after updateSpec, got %v", e.spec.RestartType)
	}

	if ok := r.updateRef("missing", StoppedRef()); ok {
		t.Fatal("expected updateRef on unknown key to report false")
	}
}
