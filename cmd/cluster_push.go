package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/spf13/cobra"
)

// clusterPushCmd represents the clusterPush command
var clusterPushCmd = &cobra.Command{
	Use:   "push <local file> <remote path>",
	Short: "uploads a file to the cluster nodes",
	Long: `Uploads a local file to every node, or only to the nodes of the given
roles. A relative remote path is resolved against the SSH user's home.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("push needs a local file and a remote path")
		}
		roles, _ := cmd.Flags().GetStringSlice("role")
		_, err := parseRoles(roles)
		return err
	},
	Run: func(cmd *cobra.Command, args []string) {
		localPath, remotePath := args[0], args[1]
		flagRoles, _ := cmd.Flags().GetStringSlice("role")
		roles, _ := parseRoles(flagRoles)

		spec, err := AppConf.Spec()
		FatalOnError(err)
		manager, err := AppConf.Manager(spec, nil)
		FatalOnError(err)

		err = manager.Dispatch(clustermanager.Operation{
			Name:       "push " + filepath.Base(localPath),
			Roles:      roles,
			Discipline: clustermanager.Parallel,
			Run: func(node clustermanager.Node) error {
				return manager.Communicator().UploadFile(node, localPath, remotePath)
			},
		})
		manager.Close()
		FatalOnError(err)

		fmt.Printf("%s pushed to %d node(s)\n", localPath, len(manager.Targets(clustermanager.Operation{Roles: roles})))
	},
}

func parseRoles(names []string) ([]clustermanager.Role, error) {
	var roles []clustermanager.Role
	for _, name := range names {
		role := clustermanager.Role(name)
		if role != clustermanager.RoleMasters && role != clustermanager.RoleSlaves {
			return nil, fmt.Errorf("unknown role '%s', use %s or %s", name, clustermanager.RoleMasters, clustermanager.RoleSlaves)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func init() {
	clusterCmd.AddCommand(clusterPushCmd)
	clusterPushCmd.Flags().StringSlice("role", []string{}, "only push to nodes of these roles (masters, slaves)")
}
