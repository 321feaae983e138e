package phases

import (
	"errors"

	"github.com/leads-project/leads-cluster/pkg/topology"
)

// TopologyPhase records the running nodes in the topology store
type TopologyPhase struct {
	store *topology.Store
	state *ClusterState
}

// NewTopologyPhase returns an instance of *TopologyPhase
func NewTopologyPhase(store *topology.Store, state *ClusterState) Phase {
	return &TopologyPhase{
		store: store,
		state: state,
	}
}

// Name returns the phase name
func (phase *TopologyPhase) Name() string {
	return "topology"
}

// ShouldRun returns if this phase should run
func (phase *TopologyPhase) ShouldRun() bool {
	return true
}

// Run runs the phase
func (phase *TopologyPhase) Run() error {
	if len(phase.state.Nodes) == 0 {
		return errors.New("no running nodes to record")
	}
	return phase.store.Save(phase.state.Nodes)
}
