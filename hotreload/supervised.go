package hotreload

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kleeedolinux/gorilix/internal/logging"
	"github.com/kleeedolinux/gorilix/supervisor"
)

// SupervisedUpgrader ties a HotReloader's version registry to a running
// supervisor: upgrading a module swaps the affected child's factory to a
// freshly registered launcher and drives a normal supervisor restart
// (terminate the old incarnation per its TerminationPolicy, start the
// new one), rather than mutating a live actor in place.
type SupervisedUpgrader struct {
	reloader  *HotReloader
	sup       *supervisor.Supervisor
	factories *supervisor.FactoryRegistry
	logger    zerolog.Logger
}

func NewSupervisedUpgrader(reloader *HotReloader, sup *supervisor.Supervisor, factories *supervisor.FactoryRegistry) *SupervisedUpgrader {
	return &SupervisedUpgrader{reloader: reloader, sup: sup, factories: factories, logger: logging.New("hotreload")}
}

// UpgradeChild registers launch under a version-qualified FactoryID,
// replaces the child's spec with a Permanent Worker spec (default worker
// termination policy, no registered name) pointing at it, and restarts
// the child through the supervisor so the swap goes through the ordinary
// restart machinery (termination policy, monitor rebinding,
// restart-window accounting) instead of a bespoke in-place code swap.
// The old spec's type, restart type, termination policy and registered
// name are not carried over.
func (u *SupervisedUpgrader) UpgradeChild(ctx context.Context, key, moduleName, version string, launch supervisor.Launcher) (supervisor.RestartChildResult, error) {
	if err := u.reloader.RegisterModule(moduleName); err != nil {
		return supervisor.RestartChildResult{}, err
	}

	ref, ok, err := supervisor.LookupChild(ctx, u.sup, key)
	if err != nil {
		return supervisor.RestartChildResult{}, err
	}
	if !ok {
		return supervisor.RestartChildResult{}, fmt.Errorf("hotreload: unknown child %q", key)
	}

	u.logger.Info().Str("child", key).Str("module", moduleName).Str("version", version).
		Str("pid", ref.PID.String()).Msg("upgrading child to new module version")

	factoryID := supervisor.FactoryID(fmt.Sprintf("%s@%s/%s", moduleName, version, key))
	u.factories.Register(factoryID, launch)

	if _, err := supervisor.TerminateChild(ctx, u.sup, key); err != nil {
		return supervisor.RestartChildResult{}, err
	}

	spec := supervisor.ChildSpec{
		Key:               key,
		Type:              supervisor.Worker,
		RestartType:       supervisor.Permanent,
		TerminationPolicy: supervisor.DefaultTerminationPolicy(supervisor.Worker),
		Factory:           factoryID,
	}
	if _, err := supervisor.DeleteChild(ctx, u.sup, key); err != nil {
		return supervisor.RestartChildResult{}, err
	}
	if _, err := supervisor.AddChild(ctx, u.sup, spec); err != nil {
		return supervisor.RestartChildResult{}, err
	}

	result, err := supervisor.RestartChild(ctx, u.sup, key)
	if err != nil {
		return supervisor.RestartChildResult{}, err
	}

	return result, nil
}
