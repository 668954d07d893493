package supervisor

import (
	"fmt"
	"time"

	"github.com/kleeedolinux/gorilix/actor"
)

// ChildType affects only the default TerminationPolicy a ChildSpec gets
// when none is given explicitly.
type ChildType int

const (
	Worker ChildType = iota
	SupervisorChild
)

// RestartType is the policy tag controlling which exits of a child
// provoke a restart.
type RestartType int

const (
	Permanent RestartType = iota
	Transient
	Temporary
	Intrinsic
)

func (t RestartType) String() string {
	switch t {
	case Permanent:
		return "permanent"
	case Transient:
		return "transient"
	case Temporary:
		return "temporary"
	case Intrinsic:
		return "intrinsic"
	default:
		return "unknown"
	}
}

// Direction controls sibling iteration order for a RestartAll strategy.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

// RestartMode selects how RestartAll phases terminate vs. start its
// siblings.
type RestartMode struct {
	sequential bool
	dir        Direction
}

// RestartEach terminates then immediately restarts each sibling in turn,
// one at a time, before touching the next.
func RestartEach(dir Direction) RestartMode { return RestartMode{sequential: true, dir: dir} }

// RestartInOrder terminates every sibling first, in dir, then starts every
// sibling, in dir.
func RestartInOrder(dir Direction) RestartMode { return RestartMode{sequential: false, dir: dir} }

func (m RestartMode) IsSequential() bool { return m.sequential }
func (m RestartMode) Direction() Direction { return m.dir }

// RestartLimit bounds restart intensity: no more than MaxRestarts restart
// attempts within any rolling Interval. MaxRestarts == 0 disables
// restarts entirely.
type RestartLimit struct {
	MaxRestarts int
	Interval    time.Duration
}

// DefaultRestartLimit allows at most one restart in a one-second window,
// counted across all of the supervisor's children.
func DefaultRestartLimit() RestartLimit {
	return RestartLimit{MaxRestarts: 1, Interval: time.Second}
}

// RestartStrategy is the tagged variant from the data model: RestartOne
// or RestartAll(mode). Backoff and breaker are optional enrichments on
// top of the plain OTP strategy, set via RestartOption.
type RestartStrategy struct {
	all     bool
	limit   RestartLimit
	mode    RestartMode
	backoff BackoffPolicy
	breaker *CircuitBreaker
}

// RestartOption configures the optional backoff/circuit-breaker
// enrichments on a RestartStrategy.
type RestartOption func(*RestartStrategy)

// WithBackoff delays each restart attempt per policy, on top of the hard
// intensity window.
func WithBackoff(policy BackoffPolicy) RestartOption {
	return func(s *RestartStrategy) { s.backoff = policy }
}

// WithCircuitBreaker gates restarts through cb independently of the
// intensity window: a tripped breaker escalates the same way exhausting
// the window does.
func WithCircuitBreaker(cb *CircuitBreaker) RestartOption {
	return func(s *RestartStrategy) { s.breaker = cb }
}

func RestartOne(limit RestartLimit, opts ...RestartOption) RestartStrategy {
	s := RestartStrategy{all: false, limit: limit}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func RestartAll(limit RestartLimit, mode RestartMode, opts ...RestartOption) RestartStrategy {
	s := RestartStrategy{all: true, limit: limit, mode: mode}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s RestartStrategy) IsRestartAll() bool  { return s.all }
func (s RestartStrategy) Limit() RestartLimit { return s.limit }
func (s RestartStrategy) Mode() RestartMode   { return s.mode }
func (s RestartStrategy) Backoff() BackoffPolicy   { return s.backoff }
func (s RestartStrategy) Breaker() *CircuitBreaker { return s.breaker }

// TerminationKind distinguishes a brutal kill from a graceful exit
// request with an optional timeout fallback.
type TerminationKind int

const (
	TerminateImmediate TerminationKind = iota
	TerminateTimeout
)

// TerminationPolicy is Immediate or Timeout(delay), delay = Infinity |
// Finite(d). Infinity is encoded as a negative Timeout.
type TerminationPolicy struct {
	Kind    TerminationKind
	Timeout time.Duration
}

func ImmediateTermination() TerminationPolicy {
	return TerminationPolicy{Kind: TerminateImmediate}
}

func TimeoutTermination(d time.Duration) TerminationPolicy {
	return TerminationPolicy{Kind: TerminateTimeout, Timeout: d}
}

func InfiniteTermination() TerminationPolicy {
	return TerminationPolicy{Kind: TerminateTimeout, Timeout: -1}
}

func (p TerminationPolicy) IsInfinite() bool {
	return p.Kind == TerminateTimeout && p.Timeout < 0
}

// DefaultTerminationPolicy mirrors OTP's defaults: workers get a finite
// grace period, supervisors (which may themselves have children to wind
// down) get an unbounded one.
func DefaultTerminationPolicy(t ChildType) TerminationPolicy {
	if t == SupervisorChild {
		return InfiniteTermination()
	}
	return TimeoutTermination(5 * time.Second)
}

// FactoryID names a launcher in the process-wide FactoryRegistry. The
// supervisor core never holds a closure directly - only this opaque
// token - so specs stay comparable, loggable, and (if ever sent to a
// remote supervisor) serializable.
type FactoryID string

// ChildSpec is the declarative description of one child.
type ChildSpec struct {
	Key               string
	Type              ChildType
	RestartType       RestartType
	TerminationPolicy TerminationPolicy
	Factory           FactoryID
	RegisteredName    string
}

// ChildRefKind is the tag of the ChildRef variant.
type ChildRefKind int

const (
	RefStopped ChildRefKind = iota
	RefRunning
	RefRestarting
	RefStartIgnored
	RefStartFailed
)

func (k ChildRefKind) String() string {
	switch k {
	case RefStopped:
		return "stopped"
	case RefRunning:
		return "running"
	case RefRestarting:
		return "restarting"
	case RefStartIgnored:
		return "start-ignored"
	case RefStartFailed:
		return "start-failed"
	default:
		return "unknown"
	}
}

// ChildRef is the runtime state of a declared child.
type ChildRef struct {
	Kind   ChildRefKind
	PID    actor.PID
	Reason string
}

func StoppedRef() ChildRef      { return ChildRef{Kind: RefStopped} }
func StartIgnoredRef() ChildRef { return ChildRef{Kind: RefStartIgnored} }

func RunningRef(pid actor.PID) ChildRef { return ChildRef{Kind: RefRunning, PID: pid} }

func RestartingRef(pid actor.PID) ChildRef { return ChildRef{Kind: RefRestarting, PID: pid} }

func StartFailedRef(reason string) ChildRef {
	return ChildRef{Kind: RefStartFailed, Reason: reason}
}

// IsLive reports whether this ref denotes a monitored, running
// incarnation (Running or Restarting).
func (r ChildRef) IsLive() bool {
	return r.Kind == RefRunning || r.Kind == RefRestarting
}

func (r ChildRef) String() string {
	switch r.Kind {
	case RefRunning, RefRestarting:
		return fmt.Sprintf("%s(%s)", r.Kind, r.PID)
	case RefStartFailed:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Reason)
	default:
		return r.Kind.String()
	}
}
