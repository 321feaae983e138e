package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// DebugMode raises the log level and writes the SSH transcripts to DebugLogFile
var DebugMode bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leads-cluster",
	Short: "A CLI tool to provision LEADS clusters on OpenStack",
	Long: `A tool for creating a cluster of OpenStack instances and running
the Infinispan data grid and Hadoop on it.

The OpenStack credentials and the cluster layout are read from the
environment (OS_USERNAME, OS_PASSWORD, OS_TENANT_NAME, OS_AUTH_URL,
LEADS_CLUSTER_NUM_OF_NODES, ...) or from the config file.
	`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		app, err := NewAppConfig(DebugMode)
		if err != nil {
			return err
		}
		AppConf = app
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		AppConf.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file to use")
	rootCmd.PersistentFlags().BoolVarP(&DebugMode, "debug", "d", false, "debug mode")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		setConfigDirectory()
	}

	// read in environment variables that match
	viper.AutomaticEnv()
	viper.AllowEmptyEnv(true)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func setConfigDirectory() {
	// Find config dir based on XDG Base Directory Specification
	// https://specifications.freedesktop.org/basedir-spec/basedir-spec-latest.html
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig != "" {
		viper.AddConfigPath(xdgConfig)
	}

	// Failback to home directory
	home, err := homedir.Dir()
	if err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetConfigName(".leads-cluster")
}
