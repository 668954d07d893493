package bridge

import (
	"github.com/kleeedolinux/gorilix/cluster"
	"github.com/kleeedolinux/gorilix/supervisor"
)

// SupervisorGossip wires a supervisor's AdminListener to a cluster's
// gossip broadcast, so every peer node observes restarts and
// escalations happening on this node's supervision tree. It is the
// only point in the module where the supervisor and cluster packages
// meet - supervisor itself stays cluster-agnostic, per its listener
// carrying no cluster types.
func SupervisorGossip(c *cluster.Cluster) supervisor.AdminListener {
	return func(evt supervisor.AdminEvent) {
		kind := cluster.AdminEventKind(evt.Kind)
		if evt.Kind == supervisor.AdminEscalated {
			kind = cluster.AdminSupervisorTripped
		}
		_ = c.BroadcastAdminEvent(cluster.AdminEvent{
			Supervisor: evt.Supervisor,
			ChildKey:   evt.ChildKey,
			Kind:       kind,
			Reason:     evt.Reason,
		})
	}
}
