package cmd

import (
	"github.com/spf13/cobra"
)

// clusterCmd represents the cluster command
var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "create and inspect the OpenStack cluster",
	Long: `This command bundles the sub-commands creating the cloud resources of a
cluster and reading back its state.

The nodes of a created cluster are recorded in the topology files
cluster_hosts, cluster_private_ips and cluster_ssh_config, which every
other command reads.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Usage()
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
}
