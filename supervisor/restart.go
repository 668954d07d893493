package supervisor

import "github.com/kleeedolinux/gorilix/actor"

// exitClass buckets a DiedReason into the three columns of the
// restart-decision table in spec §4.5.
type exitClass int

const (
	exitNormal exitClass = iota
	exitAbnormal
	exitShutdown
)

func classifyExit(reason actor.DiedReason) exitClass {
	switch {
	case reason.IsShutdown():
		return exitShutdown
	case reason.IsNormal():
		return exitNormal
	default:
		return exitAbnormal
	}
}

// restartDecision is the outcome of consulting the RestartType x exit
// table, before the restart strategy or restart window are even
// considered.
type restartDecision int

const (
	decideRestart restartDecision = iota
	decideKeepStopped
	decideRemove
	decideSupervisorExitNormal
)

// decideForExit implements the table from spec §4.5 exactly:
//
//	RestartType   Normal        Abnormal   Shutdown
//	Permanent     restart       restart    restart
//	Transient     keep-stopped  restart    keep-stopped
//	Temporary     remove        remove     remove
//	Intrinsic     sup-exits     restart    sup-exits
func decideForExit(rt RestartType, class exitClass) restartDecision {
	switch rt {
	case Permanent:
		return decideRestart
	case Transient:
		if class == exitAbnormal {
			return decideRestart
		}
		return decideKeepStopped
	case Temporary:
		return decideRemove
	case Intrinsic:
		if class == exitAbnormal {
			return decideRestart
		}
		return decideSupervisorExitNormal
	default:
		return decideRestart
	}
}

// restartPlan is the ordered outcome of expanding a RestartStrategy for a
// failed child into the set of siblings to touch. Temporary siblings are
// terminated but never restarted - their specs leave the registry
// entirely, per spec §4.5 "Temporary siblings are terminated but not
// restarted; their specs are removed."
type restartPlan struct {
	keys       []string // siblings to terminate, in effect order
	restart    map[string]bool
	sequential bool // RestartEach: terminate+start pairs, one sibling at a time
}

// buildRestartPlan computes which siblings a restart of failedKey should
// touch, and in what order, for the given strategy. reg is read-only here
// - buildRestartPlan never mutates the registry.
func buildRestartPlan(strategy RestartStrategy, reg *childRegistry, failedKey string) restartPlan {
	if !strategy.IsRestartAll() {
		return restartPlan{keys: []string{failedKey}, restart: map[string]bool{failedKey: true}}
	}

	mode := strategy.Mode()
	keys := reg.keysDirected(mode.Direction())

	restart := make(map[string]bool, len(keys))
	for _, k := range keys {
		e, ok := reg.get(k)
		if !ok {
			continue
		}
		restart[k] = e.spec.RestartType != Temporary
	}

	return restartPlan{keys: keys, restart: restart, sequential: mode.IsSequential()}
}
