package clustermanager

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Discipline tells the manager how to fan an operation out over its targets
type Discipline int

const (
	// Parallel runs the operation on every eligible node at once and waits for all of them
	Parallel Discipline = iota
	// Serial runs the operation on one eligible node at a time in host-list order
	Serial
)

func (discipline Discipline) String() string {
	if discipline == Serial {
		return "serial"
	}
	return "parallel"
}

// Operation is a unit of remote work restricted to a set of roles. An empty
// role list makes every node of the cluster eligible.
type Operation struct {
	Name       string
	Roles      []Role
	Discipline Discipline
	Run        func(node Node) error
}

type discardEvents struct{}

func (discardEvents) AddEvent(string, string) {}

// Manager is the structure used to mange cluster
type Manager struct {
	nodes            []Node
	clusterName      string
	roles            RoleAssignment
	eventService     EventService
	nodeCommunicator NodeCommunicator
	log              logrus.FieldLogger
}

// NewClusterManager create a new manager for the cluster
func NewClusterManager(cluster Cluster, roles RoleAssignment, nodeCommunicator NodeCommunicator, eventService EventService, logger logrus.FieldLogger) *Manager {
	if eventService == nil {
		eventService = discardEvents{}
	}
	return &Manager{
		nodes:            cluster.Nodes,
		clusterName:      cluster.Name,
		roles:            roles,
		eventService:     eventService,
		nodeCommunicator: nodeCommunicator,
		log:              logger,
	}
}

// Close releases the transport of the manager when it holds open connections
func (manager *Manager) Close() error {
	if closer, ok := manager.nodeCommunicator.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Cluster creates a Cluster object for further processing
func (manager *Manager) Cluster() Cluster {
	return Cluster{
		Name:  manager.clusterName,
		Nodes: manager.nodes,
	}
}

// Roles returns the role assignment the manager dispatches against
func (manager *Manager) Roles() RoleAssignment {
	return manager.roles
}

// Communicator returns the transport used to reach the nodes
func (manager *Manager) Communicator() NodeCommunicator {
	return manager.nodeCommunicator
}

// EventService returns the sink for per-node progress events
func (manager *Manager) EventService() EventService {
	return manager.eventService
}

// NodeByName returns the node with the given name
func (manager *Manager) NodeByName(name string) (*Node, error) {
	for _, node := range manager.nodes {
		if node.Name == name {
			return &node, nil
		}
	}
	return nil, &MissingReferenceError{Kind: "node", Name: name}
}

// Eligible reports whether op may run on node
func (manager *Manager) Eligible(op Operation, node Node) bool {
	if len(op.Roles) == 0 {
		return true
	}
	return manager.roles.HasAnyRole(node.Name, op.Roles)
}

// Targets returns the nodes op is eligible for, in host-list order
func (manager *Manager) Targets(op Operation) []Node {
	var targets []Node
	for _, node := range manager.nodes {
		if manager.Eligible(op, node) {
			targets = append(targets, node)
		} else {
			manager.log.WithField("node", node.Name).Debugf("skipping %s, no eligible role", op.Name)
		}
	}
	return targets
}

// Dispatch runs op on every eligible node using the op's discipline
func (manager *Manager) Dispatch(op Operation) error {
	targets := manager.Targets(op)
	manager.log.WithField("operation", op.Name).Infof("running on %d node(s), %s", len(targets), op.Discipline)

	if op.Discipline == Serial {
		return manager.runSerial(op, targets)
	}
	return manager.runParallel(op, targets)
}

func (manager *Manager) runSerial(op Operation, nodes []Node) error {
	for _, node := range nodes {
		manager.eventService.AddEvent(node.Name, op.Name)
		if err := op.Run(node); err != nil {
			manager.log.WithField("node", node.Name).Errorf("%s failed: %v", op.Name, err)
			return err
		}
		manager.eventService.AddEvent(node.Name, op.Name+" done")
	}
	return nil
}

func (manager *Manager) runParallel(op Operation, nodes []Node) error {
	errChan := make(chan error, len(nodes))
	trueChan := make(chan bool, len(nodes))
	numProcs := 0
	for _, node := range nodes {
		numProcs++
		go func(node Node) {
			manager.eventService.AddEvent(node.Name, op.Name)
			if err := op.Run(node); err != nil {
				manager.log.WithField("node", node.Name).Errorf("%s failed: %v", op.Name, err)
				errChan <- err
				return
			}
			manager.eventService.AddEvent(node.Name, op.Name+" done")
			trueChan <- true
		}(node)
	}

	return waitOrError(trueChan, errChan, &numProcs)
}
