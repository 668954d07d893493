package supervisor

import "fmt"

// startEngine implements spec §4.4 steps 1-2: resolve the spec's factory
// and spawn an incarnation, or report why it could not. Monitoring,
// registered-name binding, and registry bookkeeping are the supervisor's
// job (they need access to state this pure function deliberately does
// not touch).
func startEngine(factories *FactoryRegistry, spec ChildSpec) (Incarnation, ChildRef, *StartFailure) {
	launcher, ok := factories.Resolve(spec.Factory)
	if !ok {
		msg := fmt.Sprintf("unknown factory %q", spec.Factory)
		return nil, StartFailedRef(msg), BadClosure(msg)
	}

	inc, failure := launcher()
	if failure != nil {
		if failure.Kind == FailIgnore {
			return nil, StartIgnoredRef(), failure
		}
		return nil, StartFailedRef(failure.Error()), failure
	}

	return inc, RunningRef(inc.PID()), nil
}
