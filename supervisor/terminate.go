package supervisor

import (
	"context"
	"time"

	"github.com/kleeedolinux/gorilix/actor"
)

// terminateIncarnation implements spec §4.3 steps 2-4. It is never called
// with a ref that is not live - the caller (registry-aware code in
// supervisor.go) handles the "already stopped" short-circuit from step 1
// by simply not invoking this at all when there is no live Incarnation.
func terminateIncarnation(ctx context.Context, supID string, child Incarnation, policy TerminationPolicy) actor.DiedReason {
	switch policy.Kind {
	case TerminateImmediate:
		child.Kill(supID, "TerminatedBySupervisor")
		<-child.Done()
		return child.DiedReason()

	case TerminateTimeout:
		if policy.IsInfinite() {
			_ = child.Exit(ctx, actor.ShutdownExit())
			<-child.Done()
			return child.DiedReason()
		}

		_ = child.Exit(ctx, actor.ShutdownExit())

		timer := time.NewTimer(policy.Timeout)
		defer timer.Stop()

		select {
		case <-child.Done():
			return child.DiedReason()
		case <-timer.C:
			child.Kill(supID, "TerminatedBySupervisor")
			<-child.Done()
			return child.DiedReason()
		}

	default:
		return actor.UnknownExit()
	}
}
