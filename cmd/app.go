package cmd

import (
	"context"
	"io"
	"os"

	"github.com/leads-project/leads-cluster/pkg"
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/leads-project/leads-cluster/pkg/config"
	"github.com/leads-project/leads-cluster/pkg/openstack"
	"github.com/leads-project/leads-cluster/pkg/services"
	"github.com/leads-project/leads-cluster/pkg/topology"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// DebugLogFile receives the SSH transcripts in debug mode
const DebugLogFile = "leads-cluster.log"

// AppConfig holds what every command needs to reach the cloud and the nodes
type AppConfig struct {
	Context context.Context
	Viper   *viper.Viper
	Fs      afero.Fs
	Log     *logrus.Logger
	SSHLog  *logrus.Logger
	Debug   bool
	closers []io.Closer
}

// AppConf is the application configuration of the running command
var AppConf = AppConfig{}

// NewAppConfig sets up logging. In debug mode the SSH transcripts go to DebugLogFile.
func NewAppConfig(debug bool) (AppConfig, error) {
	app := AppConfig{
		Context: context.Background(),
		Viper:   viper.GetViper(),
		Fs:      afero.NewOsFs(),
		Log:     logrus.New(),
		SSHLog:  logrus.New(),
		Debug:   debug,
	}
	app.Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	app.SSHLog.SetOutput(io.Discard)

	if debug {
		app.Log.SetLevel(logrus.DebugLevel)
		app.Log.Info("running in debug mode, SSH transcripts go to ", DebugLogFile)

		logFile, err := os.OpenFile(DebugLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return app, err
		}
		app.closers = append(app.closers, logFile)
		app.SSHLog.SetOutput(logFile)
		app.SSHLog.SetFormatter(&logrus.JSONFormatter{})
		app.SSHLog.SetLevel(logrus.DebugLevel)
	}

	config.SetDefaults(app.Viper)
	return app, nil
}

// Close releases the debug log
func (app AppConfig) Close() {
	for _, closer := range app.closers {
		closer.Close()
	}
}

// Spec loads the cluster specification from the environment and config file
func (app AppConfig) Spec() (config.ClusterSpec, error) {
	return config.Load(app.Viper)
}

// Provider authenticates against OpenStack
func (app AppConfig) Provider(spec config.ClusterSpec) (*openstack.Provider, error) {
	return openstack.NewProvider(app.Context, spec, app.Log.WithField("component", "openstack"))
}

// Store returns the topology store of the cluster
func (app AppConfig) Store(spec config.ClusterSpec) (*topology.Store, error) {
	gateway, err := topology.GatewayHost(spec.AuthURL)
	if err != nil {
		return nil, err
	}
	return topology.NewStore(app.Fs, spec.TopologyDir, gateway, spec.SSHUser, spec.GatewayUser), nil
}

// Communicator returns the SSH transport, asking for the key passphrase when needed
func (app AppConfig) Communicator(spec config.ClusterSpec) (*clustermanager.SSHCommunicator, error) {
	gateway, err := topology.GatewayHost(spec.AuthURL)
	if err != nil {
		return nil, err
	}
	sshKey := clustermanager.SSHKey{Name: spec.PrimarySSHKey, PrivateKeyPath: spec.PrivateKeyPath}
	comm := clustermanager.NewSSHCommunicator(sshKey, spec.SSHUser, gateway, spec.GatewayUser, app.SSHLog)
	if err := comm.CapturePassphrase(); err != nil {
		return nil, err
	}
	return comm, nil
}

// Manager loads the stored topology and returns a manager dispatching over it
func (app AppConfig) Manager(spec config.ClusterSpec, events clustermanager.EventService) (*clustermanager.Manager, error) {
	store, err := app.Store(spec)
	if err != nil {
		return nil, err
	}
	stored, err := store.Load()
	if err != nil {
		return nil, err
	}
	roles, err := clustermanager.NewRoleAssignment(stored.Hostnames, spec.MasterIndex, spec.SlaveIndices)
	if err != nil {
		return nil, err
	}
	comm, err := app.Communicator(spec)
	if err != nil {
		return nil, err
	}

	cluster := clustermanager.Cluster{Name: spec.Name, Nodes: stored.Nodes()}
	return clustermanager.NewClusterManager(cluster, roles, comm, events, app.Log.WithField("cluster", spec.Name)), nil
}

// Progress starts one progress per node on the coordinator
func (app AppConfig) Progress(coordinator *pkg.ProgressCoordinator, nodes []clustermanager.Node) {
	for _, node := range nodes {
		coordinator.StartProgress(node.Name, pkg.ProgressCompleted)
	}
}

// RunService runs a lifecycle operation of a cluster service over the stored topology
func (app AppConfig) RunService(service string, operation string, needsCloud bool) error {
	spec, err := app.Spec()
	if err != nil {
		return err
	}

	var cloud clustermanager.CloudProvider
	if needsCloud {
		provider, err := app.Provider(spec)
		if err != nil {
			return err
		}
		cloud = provider
	}

	coordinator := pkg.NewProgressCoordinator(!app.Debug)
	defer coordinator.Wait()

	manager, err := app.Manager(spec, coordinator)
	if err != nil {
		return err
	}
	defer manager.Close()
	app.Progress(coordinator, manager.Cluster().Nodes)

	err = services.NewServiceRegistry(manager, spec, cloud, app.Log.WithField("service", service)).Run(service, operation)
	if err == nil {
		coordinator.CompleteAll()
	}
	return err
}
