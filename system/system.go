package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kleeedolinux/gorilix/actor"
	"github.com/kleeedolinux/gorilix/genserver"
	"github.com/kleeedolinux/gorilix/internal/logging"
	"github.com/kleeedolinux/gorilix/messaging"
	"github.com/kleeedolinux/gorilix/supervisor"
)

type ClusterConfig struct {
	NodeName string
	BindAddr string
	BindPort int
	Seeds    []string
}

type Node interface {
	GetName() string
	GetAddress() string
	GetPort() uint16
	GetStatus() int
}

type Cluster interface {
	Start() error
	Stop() error
	Join(seeds []string) (int, error)
	Leave(timeout time.Duration) error
	Self() Node
	Members() []Node
}

type ClusterProvider interface {
	NewCluster(config *ClusterConfig, system interface{}) (Cluster, error)
}

// ActorSystem is the process-wide entry point: it owns a root supervisor
// (spec §4.6's "Permanent, RestartOne" default at the top of any tree),
// the factory registry its children resolve through, and the ambient
// naming/tagging/messaging surfaces built on top of it.
type ActorSystem struct {
	name            string
	logger          zerolog.Logger
	factories       *supervisor.FactoryRegistry
	rootSupervisor  *supervisor.Supervisor
	registry        map[string]actor.ActorRef
	namedRegistry   *NamedRegistry
	actorRegistry   *Registry
	monitorRegistry *actor.MonitorRegistry
	messageBus      *messaging.MessageBus
	cluster         Cluster
	clusterProvider ClusterProvider
	mu              sync.RWMutex
	running         bool
}

func NewActorSystem(name string) *ActorSystem {
	logger := logging.New("system").With().Str("system", name).Logger()
	factories := supervisor.NewFactoryRegistry()
	strategy := supervisor.RestartOne(supervisor.RestartLimit{MaxRestarts: 10, Interval: 60 * time.Second})
	root := supervisor.NewSupervisor("root", strategy, factories, logger)

	return &ActorSystem{
		name:            name,
		logger:          logger,
		factories:       factories,
		rootSupervisor:  root,
		registry:        make(map[string]actor.ActorRef),
		namedRegistry:   NewNamedRegistry(),
		actorRegistry:   NewRegistry(),
		monitorRegistry: actor.NewMonitorRegistry(),
		messageBus:      messaging.NewMessageBus(),
		running:         true,
	}
}

func (s *ActorSystem) SetClusterProvider(provider ClusterProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusterProvider = provider
}

func (s *ActorSystem) EnableClustering(config *ClusterConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrSystemStopped
	}

	if s.cluster != nil {
		return fmt.Errorf("clustering already enabled")
	}

	if s.clusterProvider == nil {
		return fmt.Errorf("no cluster provider set, call SetClusterProvider first")
	}

	cluster, err := s.clusterProvider.NewCluster(config, s)
	if err != nil {
		return fmt.Errorf("failed to create cluster: %w", err)
	}

	s.cluster = cluster
	return s.cluster.Start()
}

func (s *ActorSystem) GetCluster() (Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return nil, ErrSystemStopped
	}

	if s.cluster == nil {
		return nil, fmt.Errorf("clustering not enabled")
	}

	return s.cluster, nil
}

func (s *ActorSystem) JoinCluster(seeds []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return 0, ErrSystemStopped
	}

	if s.cluster == nil {
		return 0, fmt.Errorf("clustering not enabled")
	}

	return s.cluster.Join(seeds)
}

func (s *ActorSystem) LeaveCluster() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return ErrSystemStopped
	}

	if s.cluster == nil {
		return fmt.Errorf("clustering not enabled")
	}

	return s.cluster.Leave(0)
}

func (s *ActorSystem) GetMessageBus() *messaging.MessageBus {
	return s.messageBus
}

// Factories returns the system's own factory registry, so callers can
// register launchers for children started directly under nested
// supervisors obtained from SpawnSupervisor.
func (s *ActorSystem) Factories() *supervisor.FactoryRegistry {
	return s.factories
}

// SpawnActor registers a fresh factory under the root supervisor and
// starts it as a Permanent worker. The factory closure captures the
// incarnation as StartChild's call returns synchronously through the
// supervisor's own mailbox, so `created` is already populated by the time
// this function reads it back.
func (s *ActorSystem) SpawnActor(id string, behavior actor.Behavior, bufferSize int) (actor.ActorRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSystemStopped
	}
	if _, exists := s.registry[id]; exists {
		return nil, actor.ErrInvalidActorID
	}

	var created *actor.DefaultActor
	factoryID := supervisor.FactoryID(fmt.Sprintf("%s/actor/%s/%s", s.name, id, uuid.NewString()))
	s.factories.Register(factoryID, func() (supervisor.Incarnation, *supervisor.StartFailure) {
		created = actor.NewActor(id, behavior, bufferSize)
		return created, nil
	})

	spec := supervisor.ChildSpec{
		Key:               id,
		Type:              supervisor.Worker,
		RestartType:       supervisor.Permanent,
		TerminationPolicy: supervisor.DefaultTerminationPolicy(supervisor.Worker),
		Factory:           factoryID,
	}

	res, err := supervisor.StartChild(context.Background(), s.rootSupervisor, spec)
	if err != nil {
		return nil, err
	}
	if res.Kind != supervisor.StartChildAdded {
		return nil, fmt.Errorf("failed to start actor %q: %s", id, res.Reason)
	}

	ref := actor.NewActorRef(created)
	s.registry[id] = ref
	s.actorRegistry.Register(ref, "actor")
	return ref, nil
}

// SpawnSupervisor starts a nested supervisor as a Permanent child of the
// root supervisor and returns it directly, so callers can add further
// children to it through the normal client API (supervisor.AddChild,
// supervisor.StartChild, ...).
func (s *ActorSystem) SpawnSupervisor(id string, strategy supervisor.RestartStrategy, opts ...supervisor.SupervisorOption) (*supervisor.Supervisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSystemStopped
	}
	if _, exists := s.registry[id]; exists {
		return nil, actor.ErrInvalidActorID
	}

	var created *supervisor.Supervisor
	factoryID := supervisor.FactoryID(fmt.Sprintf("%s/supervisor/%s/%s", s.name, id, uuid.NewString()))
	s.factories.Register(factoryID, func() (supervisor.Incarnation, *supervisor.StartFailure) {
		created = supervisor.NewSupervisor(id, strategy, s.factories, s.logger, opts...)
		return created, nil
	})

	spec := supervisor.ChildSpec{
		Key:               id,
		Type:              supervisor.SupervisorChild,
		RestartType:       supervisor.Permanent,
		TerminationPolicy: supervisor.DefaultTerminationPolicy(supervisor.SupervisorChild),
		Factory:           factoryID,
	}

	res, err := supervisor.StartChild(context.Background(), s.rootSupervisor, spec)
	if err != nil {
		return nil, err
	}
	if res.Kind != supervisor.StartChildAdded {
		return nil, fmt.Errorf("failed to start supervisor %q: %s", id, res.Reason)
	}

	ref := created.Ref()
	s.registry[id] = ref
	s.actorRegistry.Register(ref, "supervisor")
	return created, nil
}

func (s *ActorSystem) SpawnGenServer(id string, options genserver.Options) (actor.ActorRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSystemStopped
	}

	if _, exists := s.registry[id]; exists {
		return nil, actor.ErrInvalidActorID
	}

	gs, ref, err := genserver.Start(id, options)
	if err != nil {
		return nil, err
	}

	s.registry[id] = ref
	s.actorRegistry.Register(ref, "genserver")

	if options.Name != "" {
		err = s.namedRegistry.Register(options.Name, ref)
		if err != nil {
			_ = gs.Stop()
			delete(s.registry, id)
			return nil, err
		}
	}

	return ref, nil
}

func (s *ActorSystem) GetActor(id string) (actor.ActorRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return nil, ErrSystemStopped
	}

	ref, exists := s.registry[id]
	if !exists {
		return nil, actor.ErrActorNotFound
	}

	return ref, nil
}

func (s *ActorSystem) RegisterName(name string, actorRef actor.ActorRef) error {
	if !s.running {
		return ErrSystemStopped
	}

	return s.namedRegistry.Register(name, actorRef)
}

func (s *ActorSystem) UnregisterName(name string) bool {
	if !s.running {
		return false
	}

	return s.namedRegistry.Unregister(name)
}

func (s *ActorSystem) WhereIs(name string) (actor.ActorRef, bool) {
	if !s.running {
		return nil, false
	}

	return s.namedRegistry.Lookup(name)
}

func (s *ActorSystem) Monitor(monitorID, monitoredID string, linkType actor.MonitorType) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return ErrSystemStopped
	}

	_, exists1 := s.registry[monitorID]
	_, exists2 := s.registry[monitoredID]

	if !exists1 || !exists2 {
		return actor.ErrActorNotFound
	}

	s.monitorRegistry.Monitor(monitorID, monitoredID, linkType)
	return nil
}

func (s *ActorSystem) Demonitor(monitorID, monitoredID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return ErrSystemStopped
	}

	s.monitorRegistry.Demonitor(monitorID, monitoredID)
	return nil
}

func (s *ActorSystem) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.cluster != nil {
		_ = s.cluster.Stop()
	}

	s.running = false
	return supervisor.Shutdown(context.Background(), s.rootSupervisor)
}

func (s *ActorSystem) SendMessage(ctx context.Context, actorID string, message interface{}) error {
	actorRef, err := s.GetActor(actorID)
	if err != nil {
		return err
	}

	return actorRef.Send(ctx, message)
}

func (s *ActorSystem) SendNamedMessage(ctx context.Context, name string, message interface{}) error {
	actorRef, found := s.namedRegistry.Lookup(name)
	if !found {
		return fmt.Errorf("actor with name '%s' not found", name)
	}

	return actorRef.Send(ctx, message)
}

func (s *ActorSystem) NotifyFailure(ctx context.Context, actorID string, reason error) error {
	if !s.running {
		return ErrSystemStopped
	}

	s.monitorRegistry.NotifyMonitors(ctx, actorID, reason, s)

	s.namedRegistry.UnregisterActor(actorID)
	s.monitorRegistry.CleanupActor(actorID)

	return nil
}
