package supervisor

// AdminEventKind names what happened to a supervised child, for external
// listeners (metrics, cluster gossip) that want to observe the restart
// engine without reaching into supervisor internals.
type AdminEventKind string

const (
	AdminChildStarted     AdminEventKind = "child_started"
	AdminChildTerminated  AdminEventKind = "child_terminated"
	AdminChildRestarted   AdminEventKind = "child_restarted"
	AdminEscalated        AdminEventKind = "escalated"
)

// AdminEvent is a supervisor lifecycle notification. It carries no
// internal types (no ActorRef, no Incarnation) so it is safe to forward
// off-process, e.g. onto a cluster gossip broadcast.
type AdminEvent struct {
	Supervisor string
	ChildKey   string
	Kind       AdminEventKind
	Reason     string
}

// AdminListener receives AdminEvents as the supervisor processes them.
// It runs synchronously on the supervisor's own goroutine, so it must
// not block or call back into the supervisor - the same constraint the
// client API's result channels already carry.
type AdminListener func(AdminEvent)

// WithAdminListener attaches l to the supervisor, to be built via
// NewSupervisor/StartSupervisor's options. Only one listener is kept;
// the most recently attached wins.
func WithAdminListener(l AdminListener) SupervisorOption {
	return func(s *Supervisor) { s.adminListener = l }
}

// SupervisorOption configures optional cross-cutting concerns on a
// Supervisor at construction time, analogous to RestartOption on
// RestartStrategy.
type SupervisorOption func(*Supervisor)

func (s *Supervisor) emitAdmin(childKey string, kind AdminEventKind, reason string) {
	if s.adminListener == nil {
		return
	}
	s.adminListener(AdminEvent{
		Supervisor: s.id,
		ChildKey:   childKey,
		Kind:       kind,
		Reason:     reason,
	})
}
