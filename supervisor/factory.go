package supervisor

import (
	"context"
	"sync"

	"github.com/kleeedolinux/gorilix/actor"
)

// Incarnation is the subset of actor.DefaultActor the supervisor core
// depends on: a monitorable, killable, gracefully-exitable incarnation.
// actor.DefaultActor satisfies it directly; a Launcher is free to return
// any other actor.Actor implementation that also satisfies it.
type Incarnation interface {
	PID() actor.PID
	Monitor() (actor.MonitorRef, <-chan actor.DownMessage)
	Exit(ctx context.Context, reason actor.DiedReason) error
	Kill(killer, reason string)
	Done() <-chan struct{}
	DiedReason() actor.DiedReason
}

// Launcher resolves a ChildSpec's Factory into a freshly spawned
// incarnation. Returning a non-nil *StartFailure with Kind == FailIgnore
// is the "ignore this start" sentinel from the factory-resolution
// interface (spec §6); any other *StartFailure is a genuine start error.
type Launcher func() (Incarnation, *StartFailure)

// FactoryRegistry is the process-wide, name -> Launcher table the start
// engine resolves a ChildSpec.Factory through. It is built once at
// startup (register every launcher, then Seal) and read many times
// afterwards, matching the "global remote table" design note: init-once,
// read-mostly, no ongoing mutation once the process is serving.
type FactoryRegistry struct {
	mu        sync.RWMutex
	launchers map[FactoryID]Launcher
	sealed    bool
}

func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{launchers: make(map[FactoryID]Launcher)}
}

// Register adds a named launcher. It panics if called after Seal, since a
// sealed registry is meant to be read-only for the remainder of the
// process's life.
func (r *FactoryRegistry) Register(id FactoryID, l Launcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic("supervisor: FactoryRegistry.Register after Seal for " + string(id))
	}
	r.launchers[id] = l
}

// Seal freezes the registry. Calling it is optional - Resolve works
// either way - but production startup paths should call it once every
// launcher is registered, so a later Register is a loud bug rather than
// a silent race.
func (r *FactoryRegistry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

func (r *FactoryRegistry) Resolve(id FactoryID) (Launcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.launchers[id]
	return l, ok
}

// globalFactories is the default process-wide registry most callers use
// via the package-level Register/Seal helpers, mirroring how a real actor
// runtime's remote table is a single process-wide instance.
var globalFactories = NewFactoryRegistry()

func Register(id FactoryID, l Launcher) { globalFactories.Register(id, l) }

func Seal() { globalFactories.Seal() }
