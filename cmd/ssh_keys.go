package cmd

import (
	"github.com/spf13/cobra"
)

// sshKeysCmd represents the ssh-keys command
var sshKeysCmd = &cobra.Command{
	Use:   "ssh-keys",
	Short: "manage the additional SSH keys on the nodes",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Usage()
	},
}

func init() {
	rootCmd.AddCommand(sshKeysCmd)
	sshKeysCmd.AddCommand(
		serviceOperationCmd("ssh-keys", "deploy", "adds LEADS_CLUSTER_ADD_SSH_KEYS to authorized_keys on all nodes", false),
	)
}
