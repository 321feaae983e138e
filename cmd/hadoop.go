package cmd

import (
	"github.com/spf13/cobra"
)

// hadoopCmd represents the hadoop command
var hadoopCmd = &cobra.Command{
	Use:   "hadoop",
	Short: "install and run Hadoop on the masters and slaves",
	Long: `Installs HDFS and YARN on the nodes holding the masters or slaves role.

The usual order is install, configure, format, start. configure looks the
master up in OpenStack, so it needs the OpenStack credentials.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Usage()
	},
}

func init() {
	rootCmd.AddCommand(hadoopCmd)
	hadoopCmd.AddCommand(
		serviceOperationCmd("hadoop", "install", "installs the JDK and Hadoop", false),
		serviceOperationCmd("hadoop", "configure", "writes the site configuration and hadoop-env.sh", true),
		serviceOperationCmd("hadoop", "format", "formats the namenode on the master", false),
		serviceOperationCmd("hadoop", "start", "starts the daemons, masters first", false),
		serviceOperationCmd("hadoop", "stop", "stops the daemons", false),
	)
}
