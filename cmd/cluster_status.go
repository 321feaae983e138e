package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ghodss/yaml"
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/spf13/cobra"
)

// clusterStatusCmd represents the clusterStatus command
var clusterStatusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"ls", "list"},
	Short:   "lists the nodes of every cluster in the tenant",
	Long: `Lists every instance of the tenant tagged with a cluster name, whatever
cluster the local configuration points at.`,
	PreRunE: validateStatusFlags,
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := AppConf.Spec()
		FatalOnError(err)
		provider, err := AppConf.Provider(spec)
		FatalOnError(err)

		statuses, err := clustermanager.ListClusterNodes(provider)
		FatalOnError(err)

		output, _ := cmd.Flags().GetString("output")
		FatalOnError(renderStatus(os.Stdout, statuses, output))
	},
}

func validateStatusFlags(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "table", "yaml", "json":
		return nil
	}
	return fmt.Errorf("unknown output format '%s', use table, yaml or json", output)
}

func renderStatus(out io.Writer, statuses []clustermanager.ClusterNodeStatus, output string) error {
	switch output {
	case "json":
		data, err := json.MarshalIndent(statuses, "", "    ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(statuses)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	tw := new(tabwriter.Writer)
	tw.Init(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "CLUSTER\tNODE\tID\tSTATUS\tCREATED")
	for _, status := range statuses {
		created := ""
		if !status.Created.IsZero() {
			created = humanize.Time(status.Created)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s", status.ClusterName, status.NodeName, status.NodeID, status.Status, created)
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func init() {
	clusterCmd.AddCommand(clusterStatusCmd)
	clusterStatusCmd.Flags().StringP("output", "o", "table", "output format: table, yaml or json")
}
