package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// serviceOperationCmd returns the sub-command running one lifecycle operation of a service
func serviceOperationCmd(service string, operation string, short string, needsCloud bool) *cobra.Command {
	return &cobra.Command{
		Use:   operation,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			FatalOnError(AppConf.RunService(service, operation, needsCloud))
			fmt.Printf("%s %s done\n", service, operation)
		},
	}
}
