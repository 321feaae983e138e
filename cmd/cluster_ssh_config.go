package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// clusterSSHConfigCmd represents the clusterSSHConfig command
var clusterSSHConfigCmd = &cobra.Command{
	Use:   "ssh-config",
	Short: "prints the ssh_config of the cluster nodes",
	Long: `Prints the stored ssh_config, to be used as

    ssh -F cluster_ssh_config <node>

With --regenerate it is rendered again from the stored hosts and
private addresses, e.g. after changing the SSH or gateway user.`,
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := AppConf.Spec()
		FatalOnError(err)
		store, err := AppConf.Store(spec)
		FatalOnError(err)

		if regenerate, _ := cmd.Flags().GetBool("regenerate"); regenerate {
			stored, err := store.Load()
			FatalOnError(err)
			FatalOnError(store.Save(stored.Nodes()))
		}

		config, err := store.ReadSSHConfig()
		FatalOnError(err)
		fmt.Print(config)
	},
}

func init() {
	clusterCmd.AddCommand(clusterSSHConfigCmd)
	clusterSSHConfigCmd.Flags().Bool("regenerate", false, "render the file again from the stored topology")
}
