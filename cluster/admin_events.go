package cluster

import (
	"encoding/json"
	"fmt"
	"time"
)

// AdminEventKind identifies what happened to a supervised child, for the
// benefit of other nodes gossiping cluster-wide supervision state.
type AdminEventKind string

const (
	AdminChildStarted      AdminEventKind = "child_started"
	AdminChildTerminated   AdminEventKind = "child_terminated"
	AdminChildRestarted    AdminEventKind = "child_restarted"
	AdminSupervisorTripped AdminEventKind = "supervisor_tripped"
)

// AdminEvent is a supervisor-admin notification broadcast over the
// cluster's memberlist gossip layer, so every node can observe restarts
// and escalations happening on its peers without a central admin server.
type AdminEvent struct {
	NodeName   string         `json:"node_name"`
	Supervisor string         `json:"supervisor"`
	ChildKey   string         `json:"child_key"`
	Kind       AdminEventKind `json:"kind"`
	Reason     string         `json:"reason,omitempty"`
	UnixNano   int64          `json:"unix_nano"`
}

// AdminEventHandler receives admin events gossiped in from peer nodes.
type AdminEventHandler func(AdminEvent)

// BroadcastAdminEvent encodes evt and queues it on the cluster's gossip
// broadcast queue. Delivery is best-effort, same as any memberlist
// broadcast: a down node simply misses it.
func (c *Cluster) BroadcastAdminEvent(evt AdminEvent) error {
	evt.NodeName = c.config.NodeName
	if evt.UnixNano == 0 {
		evt.UnixNano = time.Now().UnixNano()
	}

	payload, err := json.Marshal(adminEnvelope{Kind: envelopeAdminEvent, Event: evt})
	if err != nil {
		return fmt.Errorf("encode admin event: %w", err)
	}
	return c.BroadcastMessage(payload)
}

// OnAdminEvent registers handler to be invoked for every AdminEvent
// gossiped in from a peer. Only one handler is kept; calling it again
// replaces the previous one. Must be called before Start so the
// dispatch goroutine starts with a handler already in place.
func (c *Cluster) OnAdminEvent(handler AdminEventHandler) {
	c.delegates.mtx.Lock()
	c.delegates.adminHandler = handler
	c.delegates.mtx.Unlock()
}

type envelopeKind string

const envelopeAdminEvent envelopeKind = "admin_event"

type adminEnvelope struct {
	Kind  envelopeKind `json:"kind"`
	Event AdminEvent   `json:"event"`
}

// dispatchIncoming decodes a raw gossip payload and, if it is an
// AdminEvent envelope, hands it to the registered handler. Unknown
// envelope kinds and malformed payloads are dropped silently - gossip
// messages from a node running a newer protocol version should not
// crash an older listener.
func (d *clusterDelegate) dispatchIncoming(raw []byte) {
	var env adminEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	if env.Kind != envelopeAdminEvent {
		return
	}

	d.mtx.RLock()
	handler := d.adminHandler
	d.mtx.RUnlock()

	if handler != nil {
		handler(env.Event)
	}
}

// runAdminDispatch drains msgCh for the cluster's lifetime, handing each
// message to dispatchIncoming. Exits when msgCh is closed by Stop.
func (c *Cluster) runAdminDispatch() {
	for msg := range c.delegates.msgCh {
		c.delegates.dispatchIncoming(msg)
	}
}
