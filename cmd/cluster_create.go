package cmd

import (
	"fmt"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/leads-project/leads-cluster/pkg/phases"
	"github.com/spf13/cobra"
)

// clusterCreateCmd represents the clusterCreate command
var clusterCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "creates a cluster",
	Long: `Creates the security groups and instances of the cluster that do not
exist yet and waits for all of them to run.

Everything is looked up by name first, so running create again resumes a
partially created cluster without duplicating anything.`,
	Run: RunClusterCreate,
}

// RunClusterCreate executes the cluster creation
func RunClusterCreate(cmd *cobra.Command, args []string) {
	spec, err := AppConf.Spec()
	FatalOnError(err)

	AppConf.Log.Infof("creating cluster %s with %d node(s) named %s-N", spec.Name, spec.NodeCount, spec.NodePrefix)

	provider, err := AppConf.Provider(spec)
	FatalOnError(err)
	store, err := AppConf.Store(spec)
	FatalOnError(err)

	reconciler := clustermanager.NewReconciler(provider, AppConf.Log.WithField("cluster", spec.Name))
	plan := spec.Plan()
	state := &phases.ClusterState{}

	chain := phases.NewPhaseChain()
	chain.AddPhase(phases.NewSecurityGroupsPhase(reconciler, plan.SecurityGroups, state))
	chain.AddPhase(phases.NewInstancesPhase(reconciler, plan, state))
	chain.AddPhase(phases.NewTopologyPhase(store, state))
	chain.SetAfterRun(func(phase phases.Phase) {
		AppConf.Log.Infof("phase %s done", phase.Name())
	})

	FatalOnError(chain.Run())

	roles, err := clustermanager.NewRoleAssignment(clustermanager.Cluster{Nodes: state.Nodes}.Hostnames(), spec.MasterIndex, spec.SlaveIndices)
	FatalOnError(err)

	fmt.Printf("Cluster %s is running\n", spec.Name)
	for _, node := range state.Nodes {
		var role string
		switch {
		case roles.HasRole(node.Name, clustermanager.RoleMasters):
			role = string(clustermanager.RoleMasters)
		case roles.HasRole(node.Name, clustermanager.RoleSlaves):
			role = string(clustermanager.RoleSlaves)
		}
		fmt.Printf("  %s\t%s\t%s\n", node.Name, node.PrivateIPAddress, role)
	}
	fmt.Printf("SSH access: ssh -F %s %s\n", store.SSHConfigPath(), state.Nodes[0].Name)
}

func init() {
	clusterCmd.AddCommand(clusterCreateCmd)
}
