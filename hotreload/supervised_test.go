package hotreload

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kleeedolinux/gorilix/actor"
	"github.com/kleeedolinux/gorilix/supervisor"
)

func launchWorker(tag string) supervisor.Launcher {
	return func() (supervisor.Incarnation, *supervisor.StartFailure) {
		return actor.NewActor("worker", func(ctx context.Context, msg interface{}) (bool, error) {
			return true, nil
		}, 4), nil
	}
}

func TestSupervisedUpgraderSwapsChildToNewFactory(t *testing.T) {
	factories := supervisor.NewFactoryRegistry()
	factories.Register("worker/v1", launchWorker("v1"))

	strategy := supervisor.RestartOne(supervisor.RestartLimit{MaxRestarts: 5, Interval: time.Minute})
	sup, err := supervisor.StartSupervisor("root", strategy, factories, []supervisor.ChildSpec{
		{
			Key:               "worker",
			Type:              supervisor.Worker,
			RestartType:       supervisor.Permanent,
			TerminationPolicy: supervisor.DefaultTerminationPolicy(supervisor.Worker),
			Factory:           "worker/v1",
		},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to start supervisor: %v", err)
	}

	ctx := context.Background()
	before, ok, err := supervisor.LookupChild(ctx, sup, "worker")
	if err != nil || !ok {
		t.Fatalf("expected worker child to be live before upgrade, ok=%v err=%v", ok, err)
	}

	reloader := NewHotReloader()
	defer reloader.Close()
	upgrader := NewSupervisedUpgrader(reloader, sup, factories)

	result, err := upgrader.UpgradeChild(ctx, "worker", "worker-module", "v2", launchWorker("v2"))
	if err != nil {
		t.Fatalf("UpgradeChild failed: %v", err)
	}
	if result.Kind != supervisor.RestartChildOk {
		t.Fatalf("expected restart to succeed, got %v", result.Kind)
	}

	after, ok, err := supervisor.LookupChild(ctx, sup, "worker")
	if err != nil || !ok {
		t.Fatalf("expected worker child to be live after upgrade, ok=%v err=%v", ok, err)
	}
	if after.PID == before.PID {
		t.Fatal("expected a new incarnation PID after the hot-reload upgrade")
	}

	versions, err := reloader.GetModuleVersions("worker-module")
	if err != nil {
		t.Fatalf("unexpected error reading module versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("UpgradeChild drives the supervisor restart directly and never calls RegisterVersion, expected no versions, got %v", versions)
	}
}
