package phases

import "github.com/leads-project/leads-cluster/pkg/clustermanager"

// InstancesPhase ensures every node of the cluster runs
type InstancesPhase struct {
	reconciler *clustermanager.Reconciler
	plan       clustermanager.ClusterPlan
	state      *ClusterState
}

// NewInstancesPhase returns an instance of *InstancesPhase
func NewInstancesPhase(reconciler *clustermanager.Reconciler, plan clustermanager.ClusterPlan, state *ClusterState) Phase {
	return &InstancesPhase{
		reconciler: reconciler,
		plan:       plan,
		state:      state,
	}
}

// Name returns the phase name
func (phase *InstancesPhase) Name() string {
	return "instances"
}

// ShouldRun returns if this phase should run
func (phase *InstancesPhase) ShouldRun() bool {
	return true
}

// Run runs the phase
func (phase *InstancesPhase) Run() error {
	nodes, err := phase.reconciler.EnsureClusterInstances(phase.plan, phase.state.SecurityGroups)
	if err != nil {
		return err
	}
	phase.state.Nodes = nodes
	return nil
}
