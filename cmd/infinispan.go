package cmd

import (
	"github.com/spf13/cobra"
)

// infinispanCmd represents the infinispan command
var infinispanCmd = &cobra.Command{
	Use:   "infinispan",
	Short: "install and run the Infinispan data grid on all nodes",
	Long: `Installs the Infinispan server on every node of the cluster, configured to
discover the other members over TCP on their private addresses, and
controls it through its init.d script.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Usage()
	},
}

func init() {
	rootCmd.AddCommand(infinispanCmd)
	infinispanCmd.AddCommand(
		serviceOperationCmd("infinispan", "install", "installs the JDK, the server and its configuration", false),
		serviceOperationCmd("infinispan", "start", "starts the server on all nodes", false),
		serviceOperationCmd("infinispan", "stop", "stops the server on all nodes", false),
	)
}
