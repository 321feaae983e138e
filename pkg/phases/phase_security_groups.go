package phases

import "github.com/leads-project/leads-cluster/pkg/clustermanager"

// SecurityGroupsPhase ensures the security groups of the cluster exist
type SecurityGroupsPhase struct {
	reconciler *clustermanager.Reconciler
	specs      []clustermanager.SecurityGroupSpec
	state      *ClusterState
}

// NewSecurityGroupsPhase returns an instance of *SecurityGroupsPhase
func NewSecurityGroupsPhase(reconciler *clustermanager.Reconciler, specs []clustermanager.SecurityGroupSpec, state *ClusterState) Phase {
	return &SecurityGroupsPhase{
		reconciler: reconciler,
		specs:      specs,
		state:      state,
	}
}

// Name returns the phase name
func (phase *SecurityGroupsPhase) Name() string {
	return "security groups"
}

// ShouldRun returns if this phase should run
func (phase *SecurityGroupsPhase) ShouldRun() bool {
	return len(phase.specs) > 0
}

// Run runs the phase
func (phase *SecurityGroupsPhase) Run() error {
	groups, err := phase.reconciler.EnsureSecurityGroups(phase.specs)
	if err != nil {
		return err
	}
	phase.state.SecurityGroups = groups
	return nil
}
