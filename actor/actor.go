package actor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Behavior is the message-handling function driving an actor's mailbox
// loop. Returning cont=false ends the actor's life: err==nil reports a
// Normal exit, a non-nil err reports an Exception exit. This is the Go
// encoding of "the process function returns, the process exits."
type Behavior func(ctx context.Context, message interface{}) (cont bool, err error)

type Actor interface {
	Receive(ctx context.Context, message interface{}) error

	Stop() error

	ID() string

	IsRunning() bool
}

// ActorRef is a handle to a single actor incarnation: sending through it
// always targets the same underlying goroutine, even across the actor's
// own internal state changes.
type ActorRef interface {
	Send(ctx context.Context, message interface{}) error

	ID() string

	IsRunning() bool
}

// PID identifies one incarnation of an actor. Two incarnations started
// under the same ID (e.g. a restarted child) carry different PIDs.
type PID struct {
	ID          string
	Incarnation string
}

func (p PID) String() string { return p.ID + "#" + p.Incarnation }

// MonitorRef correlates a down notification with the Monitor call that
// requested it, so a supervisor can discard notifications belonging to a
// stale (already-replaced) incarnation.
type MonitorRef struct {
	id     string
	target PID
}

func (m MonitorRef) ID() string     { return m.id }
func (m MonitorRef) Target() PID    { return m.target }
func (m MonitorRef) String() string { return m.id }

// DownMessage is delivered exactly once per successful Monitor call, when
// the monitored incarnation terminates for any reason.
type DownMessage struct {
	Ref    MonitorRef
	PID    PID
	Reason DiedReason
}

type exitSignal struct {
	reason DiedReason
}

type DefaultActor struct {
	pid      PID
	mailbox  chan interface{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	behavior Behavior

	mu         sync.RWMutex
	stopped    bool
	diedReason DiedReason
	lastError  error

	done chan struct{}

	monitorMu sync.Mutex
	monitors  map[string]chan<- DownMessage

	stateData   map[string]interface{}
	stateDataMu sync.RWMutex
}

// NewActor starts a new incarnation of an actor identified by id, draining
// its mailbox on a dedicated goroutine until behavior signals completion,
// the actor is killed, or it is asked to exit gracefully.
func NewActor(id string, behavior Behavior, bufferSize int) *DefaultActor {
	ctx, cancel := context.WithCancel(context.Background())

	a := &DefaultActor{
		pid:       PID{ID: id, Incarnation: uuid.NewString()},
		mailbox:   make(chan interface{}, bufferSize),
		ctx:       ctx,
		cancel:    cancel,
		behavior:  behavior,
		done:      make(chan struct{}),
		monitors:  make(map[string]chan<- DownMessage),
		stateData: make(map[string]interface{}),
	}

	a.wg.Add(1)
	go a.run()

	return a
}

func (a *DefaultActor) PID() PID { return a.pid }

func (a *DefaultActor) run() {
	defer a.wg.Done()

	for {
		select {
		case msg, ok := <-a.mailbox:
			if !ok {
				a.finish(UnknownExit())
				return
			}
			if sig, isExit := msg.(exitSignal); isExit {
				// Kill() may have already cancelled the context and recorded
				// a KilledBy reason before this queued exit signal got its
				// turn in the select; a stale Shutdown/Normal reason must
				// not clobber that, since Kill is the more authoritative
				// (and more recent) verdict on why this incarnation died.
				if a.ctx.Err() != nil {
					a.finish(a.killReasonOrUnknown())
				} else {
					a.finish(sig.reason)
				}
				return
			}

			cont, err := a.behavior(a.ctx, msg)
			if err != nil {
				a.setLastError(err)
			}
			if !cont {
				reason := NormalExit()
				if err != nil {
					reason = ExceptionExit(err.Error())
				}
				a.finish(reason)
				return
			}
		case <-a.ctx.Done():
			a.finish(a.killReasonOrUnknown())
			return
		}
	}
}

func (a *DefaultActor) killReasonOrUnknown() DiedReason {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.diedReason.Kind == KilledBy {
		return a.diedReason
	}
	return UnknownExit()
}

func (a *DefaultActor) finish(reason DiedReason) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.diedReason = reason
	a.mu.Unlock()

	close(a.done)
	a.notifyMonitors(reason)
}

func (a *DefaultActor) notifyMonitors(reason DiedReason) {
	a.monitorMu.Lock()
	monitors := a.monitors
	a.monitors = make(map[string]chan<- DownMessage)
	a.monitorMu.Unlock()

	for id, ch := range monitors {
		ch <- DownMessage{Ref: MonitorRef{id: id, target: a.pid}, PID: a.pid, Reason: reason}
	}
}

// Monitor registers interest in this actor's termination and returns a
// reference plus a channel that receives exactly one DownMessage.
func (a *DefaultActor) Monitor() (MonitorRef, <-chan DownMessage) {
	ref := MonitorRef{id: uuid.NewString(), target: a.pid}
	ch := make(chan DownMessage, 1)

	a.mu.RLock()
	alreadyDead := a.stopped
	reason := a.diedReason
	a.mu.RUnlock()

	if alreadyDead {
		ch <- DownMessage{Ref: ref, PID: a.pid, Reason: reason}
		return ref, ch
	}

	a.monitorMu.Lock()
	a.monitors[ref.id] = ch
	a.monitorMu.Unlock()
	return ref, ch
}

// Demonitor cancels a pending Monitor registration; it is a no-op if the
// actor has already sent its down notification.
func (a *DefaultActor) Demonitor(ref MonitorRef) {
	a.monitorMu.Lock()
	delete(a.monitors, ref.id)
	a.monitorMu.Unlock()
}

func (a *DefaultActor) Receive(ctx context.Context, message interface{}) error {
	a.mu.RLock()
	if a.stopped {
		a.mu.RUnlock()
		return ErrActorStopped
	}
	a.mu.RUnlock()

	select {
	case a.mailbox <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return ErrActorStopped
	default:
		timer := time.NewTimer(100 * time.Millisecond)
		select {
		case a.mailbox <- message:
			timer.Stop()
			return nil
		case <-timer.C:
			return ErrMailboxFull
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-a.ctx.Done():
			timer.Stop()
			return ErrActorStopped
		}
	}
}

// Exit requests a graceful shutdown: the signal is queued behind whatever
// the actor is already processing, matching a real mailbox's ordering.
func (a *DefaultActor) Exit(ctx context.Context, reason DiedReason) error {
	return a.Receive(ctx, exitSignal{reason: reason})
}

// Kill is the brutal-kill primitive: it tears down the actor immediately,
// without waiting for the mailbox to drain.
func (a *DefaultActor) Kill(killer, reason string) {
	a.mu.Lock()
	if !a.stopped {
		a.diedReason = KilledByExit(killer, reason)
	}
	a.mu.Unlock()
	a.cancel()
}

// Done reports when this incarnation has fully terminated.
func (a *DefaultActor) Done() <-chan struct{} { return a.done }

// DiedReason returns the terminal reason once Done is closed; it is the
// zero value (Normal) until then.
func (a *DefaultActor) DiedReason() DiedReason {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.diedReason
}

// Stop is the cooperative-shutdown path used outside the supervision
// tree (e.g. the demo CLI tearing down an ad hoc actor): it is equivalent
// to Exit followed by waiting for Done, with no timeout fallback.
func (a *DefaultActor) Stop() error {
	_ = a.Exit(context.Background(), ShutdownExit())
	<-a.done
	a.wg.Wait()
	return nil
}

func (a *DefaultActor) ID() string {
	return a.pid.ID
}

func (a *DefaultActor) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.stopped
}

func (a *DefaultActor) SetState(key string, value interface{}) {
	a.stateDataMu.Lock()
	defer a.stateDataMu.Unlock()
	a.stateData[key] = value
}

func (a *DefaultActor) GetState(key string) (interface{}, bool) {
	a.stateDataMu.RLock()
	defer a.stateDataMu.RUnlock()
	val, ok := a.stateData[key]
	return val, ok
}

func (a *DefaultActor) setLastError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = err
}

func (a *DefaultActor) GetLastError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastError
}

type ActorRefImpl struct {
	actor Actor
}

func NewActorRef(actor Actor) ActorRef {
	return &ActorRefImpl{actor: actor}
}

func (r *ActorRefImpl) Send(ctx context.Context, message interface{}) error {
	return r.actor.Receive(ctx, message)
}

func (r *ActorRefImpl) ID() string {
	return r.actor.ID()
}

func (r *ActorRefImpl) IsRunning() bool {
	return r.actor.IsRunning()
}
