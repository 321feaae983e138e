package phases

import (
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
)

// Phase defines an interface for a generic phase
type Phase interface {
	Name() string
	ShouldRun() bool
	Run() error
}

// ClusterState carries what earlier phases of a create run produced
type ClusterState struct {
	SecurityGroups []clustermanager.SecurityGroup
	Nodes          []clustermanager.Node
}

// PhaseChain is a holder of several phases and a after run step
type PhaseChain struct {
	phases   []Phase
	afterRun func(phase Phase)
}

// NewPhaseChain creates a new instance of *PhaseChain
func NewPhaseChain() *PhaseChain {
	return &PhaseChain{
		phases:   []Phase{},
		afterRun: func(Phase) {},
	}
}

// AddPhase adds a new phase to the chain
func (chain *PhaseChain) AddPhase(phase Phase) {
	chain.phases = append(chain.phases, phase)
}

// SetAfterRun configures the after run function
func (chain *PhaseChain) SetAfterRun(fun func(phase Phase)) {
	chain.afterRun = fun
}

// Run runs the phases in order and stops at the first error
func (chain *PhaseChain) Run() error {
	for _, phase := range chain.phases {
		if phase.ShouldRun() {
			err := phase.Run()

			if err != nil {
				return err
			}

			chain.afterRun(phase)
		}
	}

	return nil
}
