package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/kleeedolinux/gorilix/actor"
	"github.com/kleeedolinux/gorilix/genserver"
)

// defaultCallTimeout bounds how long a client waits for the supervisor's
// reply: the time spent queued in the supervisor's mailbox and the time
// the supervisor spends processing the request (including any termination
// timeout) both count against it.
const defaultCallTimeout = 30 * time.Second

// Ref exposes the supervisor as an actor.ActorRef so it can be monitored
// by a parent supervisor the same way any other child is.
func (s *Supervisor) Ref() actor.ActorRef { return actor.NewActorRef(s) }

// ---- request payloads (internal; never constructed by callers directly) ----

type addChildPayload struct{ spec ChildSpec }
type startChildPayload struct{ spec ChildSpec }
type terminateChildPayload struct{ key string }
type restartChildPayload struct{ key string }
type deleteChildPayload struct{ key string }
type lookupChildPayload struct{ key string }
type listChildrenPayload struct{}
type shutdownPayload struct{}

// ---- result types (spec §4.7) ----

type AddChildResultKind int

const (
	AddChildAdded AddChildResultKind = iota
	AddChildDuplicate
)

type AddChildResult struct {
	Kind AddChildResultKind
	Ref  ChildRef
}

type StartChildResultKind int

const (
	StartChildAdded StartChildResultKind = iota
	StartChildFailedToStart
	StartChildGone
)

type StartChildResult struct {
	Kind   StartChildResultKind
	Ref    ChildRef
	Reason string
}

type TerminateChildResultKind int

const (
	TerminateChildOk TerminateChildResultKind = iota
	TerminateChildNotFound
)

type TerminateChildResult struct {
	Kind TerminateChildResultKind
}

type RestartChildResultKind int

const (
	RestartChildOk RestartChildResultKind = iota
	RestartChildFailed
	RestartChildUnknownId
)

type RestartChildResult struct {
	Kind   RestartChildResultKind
	Ref    ChildRef
	Reason string
}

type DeleteChildResultKind int

const (
	DeleteChildDeleted DeleteChildResultKind = iota
	DeleteChildNotFound
	DeleteChildNotStopped
)

type DeleteChildResult struct {
	Kind DeleteChildResultKind
	Ref  ChildRef
}

type ChildInfo struct {
	Key         string
	Ref         ChildRef
	Type        ChildType
	RestartType RestartType
}

type lookupReply struct {
	ref ChildRef
	ok  bool
}

// ---- dispatch ----

func (s *Supervisor) handleCall(ctx context.Context, m *genserver.CallMessage) (bool, error) {
	reply := func(v interface{}) {
		if m.ReplyTo == nil {
			return
		}
		select {
		case m.ReplyTo <- v:
		default:
		}
	}

	switch p := m.Payload.(type) {
	case addChildPayload:
		reply(s.handleAddChild(p.spec))
		return true, nil

	case startChildPayload:
		reply(s.handleStartChild(p.spec))
		return true, nil

	case terminateChildPayload:
		reply(s.handleTerminateChild(ctx, p.key))
		return true, nil

	case restartChildPayload:
		reply(s.handleRestartChild(ctx, p.key))
		return true, nil

	case deleteChildPayload:
		reply(s.handleDeleteChild(p.key))
		return true, nil

	case lookupChildPayload:
		ref, ok := s.handleLookupChild(p.key)
		reply(lookupReply{ref: ref, ok: ok})
		return true, nil

	case listChildrenPayload:
		reply(s.handleListChildren())
		return true, nil

	case shutdownPayload:
		s.logger.Info().Msg("shutting down on client request")
		s.terminateAllReverse(ctx)
		reply(struct{}{})
		return false, nil

	default:
		s.logger.Warn().Interface("payload", m.Payload).Msg("unknown call payload")
		reply(nil)
		return true, nil
	}
}

// ---- handlers (spec §4.4/§4.5 wiring + §4.7 semantics) ----

func (s *Supervisor) handleAddChild(spec ChildSpec) AddChildResult {
	if err := s.registry.insert(spec, StoppedRef()); err != nil {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			return AddChildResult{Kind: AddChildDuplicate, Ref: dup.Existing}
		}
	}
	return AddChildResult{Kind: AddChildAdded, Ref: StoppedRef()}
}

func (s *Supervisor) handleStartChild(spec ChildSpec) StartChildResult {
	if e, exists := s.registry.get(spec.Key); exists {
		if e.ref.IsLive() {
			return StartChildResult{Kind: StartChildFailedToStart, Ref: e.ref, Reason: "duplicate child"}
		}
		s.registry.updateSpec(spec.Key, spec)
	} else if err := s.registry.insert(spec, StoppedRef()); err != nil {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			return StartChildResult{Kind: StartChildFailedToStart, Ref: dup.Existing, Reason: "duplicate child"}
		}
	}

	s.startChildInternal(spec.Key)

	e, stillExists := s.registry.get(spec.Key)
	if !stillExists {
		return StartChildResult{Kind: StartChildGone}
	}
	if e.ref.Kind == RefStartFailed {
		return StartChildResult{Kind: StartChildFailedToStart, Ref: e.ref, Reason: e.ref.Reason}
	}
	return StartChildResult{Kind: StartChildAdded, Ref: e.ref}
}

func (s *Supervisor) handleTerminateChild(ctx context.Context, key string) TerminateChildResult {
	e, ok := s.registry.get(key)
	if !ok {
		return TerminateChildResult{Kind: TerminateChildNotFound}
	}

	if inc, live := s.live[key]; live {
		terminateIncarnation(ctx, s.id, inc, e.spec.TerminationPolicy)
		delete(s.live, key)
		delete(s.monitors, key)
	}

	if e.spec.RestartType == Temporary {
		s.registry.remove(key)
	} else {
		s.registry.updateRef(key, StoppedRef())
	}
	s.emitAdmin(key, AdminChildTerminated, "")
	return TerminateChildResult{Kind: TerminateChildOk}
}

func (s *Supervisor) handleRestartChild(ctx context.Context, key string) RestartChildResult {
	e, ok := s.registry.get(key)
	if !ok {
		return RestartChildResult{Kind: RestartChildUnknownId}
	}
	if e.ref.IsLive() {
		return RestartChildResult{Kind: RestartChildFailed, Ref: e.ref, Reason: "already running"}
	}

	s.startChildInternal(key)

	e, _ = s.registry.get(key)
	if e.ref.Kind == RefStartFailed {
		return RestartChildResult{Kind: RestartChildFailed, Ref: e.ref, Reason: e.ref.Reason}
	}
	return RestartChildResult{Kind: RestartChildOk, Ref: e.ref}
}

func (s *Supervisor) handleDeleteChild(key string) DeleteChildResult {
	e, ok := s.registry.get(key)
	if !ok {
		return DeleteChildResult{Kind: DeleteChildNotFound}
	}
	if e.ref.IsLive() {
		return DeleteChildResult{Kind: DeleteChildNotStopped, Ref: e.ref}
	}
	s.registry.remove(key)
	return DeleteChildResult{Kind: DeleteChildDeleted}
}

func (s *Supervisor) handleLookupChild(key string) (ChildRef, bool) {
	e, ok := s.registry.get(key)
	if !ok {
		return ChildRef{}, false
	}
	return e.ref, true
}

func (s *Supervisor) handleListChildren() []ChildInfo {
	entries := s.registry.list()
	out := make([]ChildInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, ChildInfo{Key: e.spec.Key, Ref: e.ref, Type: e.spec.Type, RestartType: e.spec.RestartType})
	}
	return out
}

// ---- public client API (spec §4.7) ----

func AddChild(ctx context.Context, sup *Supervisor, spec ChildSpec) (AddChildResult, error) {
	res, err := genserver.MakeCallSync(ctx, sup.Ref(), addChildPayload{spec: spec}, defaultCallTimeout)
	if err != nil {
		return AddChildResult{}, err
	}
	return res.(AddChildResult), nil
}

func StartChild(ctx context.Context, sup *Supervisor, spec ChildSpec) (StartChildResult, error) {
	res, err := genserver.MakeCallSync(ctx, sup.Ref(), startChildPayload{spec: spec}, defaultCallTimeout)
	if err != nil {
		return StartChildResult{}, err
	}
	return res.(StartChildResult), nil
}

func TerminateChild(ctx context.Context, sup *Supervisor, key string) (TerminateChildResult, error) {
	res, err := genserver.MakeCallSync(ctx, sup.Ref(), terminateChildPayload{key: key}, defaultCallTimeout)
	if err != nil {
		return TerminateChildResult{}, err
	}
	return res.(TerminateChildResult), nil
}

func RestartChild(ctx context.Context, sup *Supervisor, key string) (RestartChildResult, error) {
	res, err := genserver.MakeCallSync(ctx, sup.Ref(), restartChildPayload{key: key}, defaultCallTimeout)
	if err != nil {
		return RestartChildResult{}, err
	}
	return res.(RestartChildResult), nil
}

func DeleteChild(ctx context.Context, sup *Supervisor, key string) (DeleteChildResult, error) {
	res, err := genserver.MakeCallSync(ctx, sup.Ref(), deleteChildPayload{key: key}, defaultCallTimeout)
	if err != nil {
		return DeleteChildResult{}, err
	}
	return res.(DeleteChildResult), nil
}

func LookupChild(ctx context.Context, sup *Supervisor, key string) (ChildRef, bool, error) {
	res, err := genserver.MakeCallSync(ctx, sup.Ref(), lookupChildPayload{key: key}, defaultCallTimeout)
	if err != nil {
		return ChildRef{}, false, err
	}
	lr := res.(lookupReply)
	return lr.ref, lr.ok, nil
}

func ListChildren(ctx context.Context, sup *Supervisor) ([]ChildInfo, error) {
	res, err := genserver.MakeCallSync(ctx, sup.Ref(), listChildrenPayload{}, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return res.([]ChildInfo), nil
}

// Shutdown terminates every child in reverse insertion order and then
// exits the supervisor itself with a Normal reason.
func Shutdown(ctx context.Context, sup *Supervisor) error {
	_, err := genserver.MakeCallSync(ctx, sup.Ref(), shutdownPayload{}, defaultCallTimeout)
	return err
}
