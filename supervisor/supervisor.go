package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/kleeedolinux/gorilix/actor"
	"github.com/kleeedolinux/gorilix/genserver"
	"github.com/rs/zerolog"
)

// Supervisor is the main-loop actor from spec §4.6. It is single-threaded
// with respect to its own state: every field below is touched only from
// inside behavior, which runs on the one goroutine actor.NewActor starts.
// Client calls and monitor-down notifications alike arrive as ordinary
// mailbox messages, so the registry needs no lock of its own.
type Supervisor struct {
	*actor.DefaultActor

	id        string
	strategy  RestartStrategy
	factories *FactoryRegistry
	logger    zerolog.Logger

	registry *childRegistry
	live     map[string]Incarnation
	monitors map[string]actor.MonitorRef
	named    map[string]string // registered name -> child key

	window []time.Time

	adminListener AdminListener
}

// childDownMsg is how a monitored incarnation's termination re-enters the
// supervisor's own mailbox (spec §5: "a monitor notification is delivered
// at most once ... ignoring notifications whose reference does not match
// the currently expected incarnation").
type childDownMsg struct {
	key  string
	mref actor.MonitorRef
	down actor.DownMessage
}

type bootstrapMsg struct {
	specs  []ChildSpec
	result chan<- error
}

// NewSupervisor constructs a supervisor actor with no children. Use
// StartSupervisor to also bring up an initial, ordered set of children
// before the supervisor is handed to any other caller.
func NewSupervisor(id string, strategy RestartStrategy, factories *FactoryRegistry, logger zerolog.Logger, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		id:        id,
		strategy:  strategy,
		factories: factories,
		logger:    logger.With().Str("supervisor", id).Logger(),
		registry:  newChildRegistry(),
		live:      make(map[string]Incarnation),
		monitors:  make(map[string]actor.MonitorRef),
		named:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.DefaultActor = actor.NewActor(id, s.behavior, 256)
	return s
}

// StartSupervisor constructs a supervisor and starts each spec in order,
// aborting (tearing down everything already started, in reverse order)
// if any child fails to start for a reason other than "ignore".
func StartSupervisor(id string, strategy RestartStrategy, factories *FactoryRegistry, specs []ChildSpec, logger zerolog.Logger, opts ...SupervisorOption) (*Supervisor, error) {
	s := NewSupervisor(id, strategy, factories, logger, opts...)

	resultCh := make(chan error, 1)
	if err := s.Receive(context.Background(), bootstrapMsg{specs: specs, result: resultCh}); err != nil {
		return nil, err
	}
	if err := <-resultCh; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Supervisor) behavior(ctx context.Context, msg interface{}) (bool, error) {
	switch m := msg.(type) {
	case *genserver.CallMessage:
		return s.handleCall(ctx, m)
	case childDownMsg:
		return s.handleDown(ctx, m)
	case bootstrapMsg:
		return s.handleBootstrap(ctx, m)
	default:
		s.logger.Warn().Interface("message", msg).Msg("ignoring message of unexpected type")
		return true, nil
	}
}

func (s *Supervisor) handleBootstrap(ctx context.Context, m bootstrapMsg) (bool, error) {
	started := make([]string, 0, len(m.specs))

	for _, spec := range m.specs {
		if err := s.registry.insert(spec, StoppedRef()); err != nil {
			m.result <- fmt.Errorf("supervisor %s: duplicate key %q at startup", s.id, spec.Key)
			s.terminateKeysReverse(ctx, started)
			return false, fmt.Errorf("exit-from=%s,reason=startup-failure", s.id)
		}

		s.startChildInternal(spec.Key)

		e, _ := s.registry.get(spec.Key)
		if e.ref.Kind == RefStartFailed {
			m.result <- fmt.Errorf("supervisor %s: child %q failed to start: %s", s.id, spec.Key, e.ref.Reason)
			s.terminateKeysReverse(ctx, started)
			return false, fmt.Errorf("exit-from=%s,reason=startup-failure", s.id)
		}

		started = append(started, spec.Key)
	}

	m.result <- nil
	return true, nil
}

// trackMonitor forwards a down notification into the supervisor's own
// mailbox so it is processed serially with every other message, matching
// spec §5's single-threaded receive model.
func (s *Supervisor) trackMonitor(key string, mref actor.MonitorRef, downCh <-chan actor.DownMessage) {
	s.monitors[key] = mref
	go func() {
		dm := <-downCh
		_ = s.Receive(context.Background(), childDownMsg{key: key, mref: mref, down: dm})
	}()
}

func (s *Supervisor) handleDown(ctx context.Context, m childDownMsg) (bool, error) {
	current, tracked := s.monitors[m.key]
	if !tracked || current.ID() != m.mref.ID() {
		s.logger.Debug().Str("child", m.key).Msg("ignoring stale monitor notification")
		return true, nil
	}
	delete(s.monitors, m.key)
	delete(s.live, m.key)

	e, ok := s.registry.get(m.key)
	if !ok {
		return true, nil
	}

	class := classifyExit(m.down.Reason)
	switch decideForExit(e.spec.RestartType, class) {
	case decideKeepStopped:
		s.registry.updateRef(m.key, StoppedRef())
		return true, nil
	case decideRemove:
		s.registry.remove(m.key)
		return true, nil
	case decideSupervisorExitNormal:
		s.terminateAllReverse(ctx)
		return false, nil
	case decideRestart:
		return s.performRestart(ctx, m.key)
	default:
		return true, nil
	}
}

// performRestart is the restart engine (spec §4.5): check the restart
// window, then either restart the one failed child or expand the
// configured RestartAll mode across its siblings.
func (s *Supervisor) performRestart(ctx context.Context, failedKey string) (bool, error) {
	allowed, newHistory := allowRestart(time.Now(), s.window, s.strategy.Limit())
	s.window = newHistory
	if !allowed {
		return s.escalate(ctx)
	}

	if breaker := s.strategy.Breaker(); breaker != nil {
		if tripped := breaker.RecordFailure(); tripped || !breaker.ShouldAllow() {
			s.logger.Warn().Str("child", failedKey).Msg("circuit breaker open, escalating instead of restarting")
			return s.escalate(ctx)
		}
	}

	if delay := s.strategy.Backoff().delay(len(s.window)); delay > 0 {
		s.logger.Debug().Str("child", failedKey).Dur("delay", delay).Msg("backing off before restart")
		time.Sleep(delay)
	}

	if !s.strategy.IsRestartAll() {
		s.restartOneChild(ctx, failedKey)
		return true, nil
	}

	plan := buildRestartPlan(s.strategy, s.registry, failedKey)

	if plan.sequential {
		for _, key := range plan.keys {
			if plan.restart[key] {
				s.restartOneChild(ctx, key)
			} else {
				s.terminateSibling(ctx, key, false)
			}
		}
		return true, nil
	}

	for _, key := range plan.keys {
		s.terminateSibling(ctx, key, plan.restart[key])
	}
	for _, key := range plan.keys {
		if plan.restart[key] {
			s.startChildInternal(key)
		}
	}
	return true, nil
}

func (s *Supervisor) escalate(ctx context.Context) (bool, error) {
	s.emitAdmin("", AdminEscalated, "ReachedMaxRestartIntensity")
	s.terminateAllReverse(ctx)
	return false, fmt.Errorf("exit-from=%s,reason=ReachedMaxRestartIntensity", s.id)
}

// restartOneChild terminates the current incarnation (if any) and starts
// a fresh one, exactly as spec §4.5 "Restart of one child" prescribes.
func (s *Supervisor) restartOneChild(ctx context.Context, key string) {
	e, ok := s.registry.get(key)
	if !ok {
		return
	}

	if inc, live := s.live[key]; live {
		s.registry.updateRef(key, RestartingRef(inc.PID()))
		terminateIncarnation(ctx, s.id, inc, e.spec.TerminationPolicy)
		delete(s.live, key)
		delete(s.monitors, key)
	}

	s.startChildInternal(key)
	s.emitAdmin(key, AdminChildRestarted, "")
}

// terminateSibling terminates a live sibling during a RestartAll group
// operation. When keepForRestart is false (Temporary siblings, or the
// non-restarting half of RestartEach) the spec is removed once stopped.
func (s *Supervisor) terminateSibling(ctx context.Context, key string, keepForRestart bool) {
	e, ok := s.registry.get(key)
	if !ok {
		return
	}

	if inc, live := s.live[key]; live {
		if keepForRestart {
			s.registry.updateRef(key, RestartingRef(inc.PID()))
		}
		terminateIncarnation(ctx, s.id, inc, e.spec.TerminationPolicy)
		delete(s.live, key)
		delete(s.monitors, key)
	}

	if !keepForRestart {
		s.registry.remove(key)
	}
}

func (s *Supervisor) terminateAllReverse(ctx context.Context) {
	s.terminateKeysReverse(ctx, s.registry.keysDirected(LeftToRight))
}

func (s *Supervisor) terminateKeysReverse(ctx context.Context, keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		e, ok := s.registry.get(key)
		if !ok {
			continue
		}
		if inc, live := s.live[key]; live {
			terminateIncarnation(ctx, s.id, inc, e.spec.TerminationPolicy)
			delete(s.live, key)
			delete(s.monitors, key)
		}
	}
}

// startChildInternal is the start engine (spec §4.4) plus the registry
// and monitor bookkeeping around it.
func (s *Supervisor) startChildInternal(key string) {
	e, ok := s.registry.get(key)
	if !ok {
		return
	}

	inc, ref, failure := startEngine(s.factories, e.spec)
	if failure != nil {
		if failure.Kind == FailIgnore {
			if e.spec.RestartType == Temporary {
				s.registry.remove(key)
			} else {
				s.registry.updateRef(key, StartIgnoredRef())
			}
			return
		}

		s.registry.updateRef(key, ref)
		_, newHistory := allowRestart(time.Now(), s.window, s.strategy.Limit())
		s.window = newHistory
		return
	}

	s.registry.updateRef(key, ref)
	s.live[key] = inc
	if breaker := s.strategy.Breaker(); breaker != nil {
		breaker.RecordSuccess()
	}

	mref, downCh := inc.Monitor()
	s.trackMonitor(key, mref, downCh)

	if e.spec.RegisteredName != "" {
		s.named[e.spec.RegisteredName] = key
	}

	s.emitAdmin(key, AdminChildStarted, "")
}
