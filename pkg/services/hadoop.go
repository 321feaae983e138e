package services

import (
	"fmt"
	"path"
	"sort"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/sirupsen/logrus"
)

const (
	// HadoopVersion is the batch framework release that gets installed
	HadoopVersion = "2.5.2"
	// HadoopPackageURL is where the release archive is fetched from
	HadoopPackageURL = "https://archive.apache.org/dist/hadoop/core/hadoop-" + HadoopVersion + "/hadoop-" + HadoopVersion + ".tar.gz"

	hadoopDir     = "hadoop-" + HadoopVersion
	hadoopArchive = hadoopDir + ".tar.gz"
)

// HadoopConfDir is the configuration directory inside the unpacked release
var HadoopConfDir = path.Join(hadoopDir, "etc", "hadoop")

var hadoopRoles = []clustermanager.Role{clustermanager.RoleMasters, clustermanager.RoleSlaves}

// daemons per role, in start order
var hadoopDaemons = map[clustermanager.Role][]hadoopDaemon{
	clustermanager.RoleMasters: {{"hadoop-daemon.sh", "namenode"}, {"yarn-daemon.sh", "resourcemanager"}},
	clustermanager.RoleSlaves:  {{"hadoop-daemon.sh", "datanode"}, {"yarn-daemon.sh", "nodemanager"}},
}

type hadoopDaemon struct {
	script string
	name   string
}

// the daemon scripts cd into the release directory, so every path is absolute
func (daemon hadoopDaemon) command(home string, action string) string {
	return fmt.Sprintf("%s --config %s %s %s",
		path.Join(home, hadoopDir, "sbin", daemon.script), path.Join(home, HadoopConfDir), action, daemon.name)
}

// HadoopService installs, configures and runs HDFS and YARN on the masters and slaves
type HadoopService struct {
	manager     *clustermanager.Manager
	cloud       clustermanager.CloudProvider
	user        string
	replication int
	heapSizeMB  int
	log         logrus.FieldLogger
}

func init() {
	addService("hadoop", func(registry *ServiceRegistry) ClusterService {
		return NewHadoopService(registry.manager, registry.cloud, registry.spec.SSHUser, registry.spec.HadoopReplication, registry.spec.HadoopHeapSizeMB, registry.log)
	})
}

// NewHadoopService returns the batch framework service of the managed cluster
func NewHadoopService(manager *clustermanager.Manager, cloud clustermanager.CloudProvider, user string, replication int, heapSizeMB int, logger logrus.FieldLogger) *HadoopService {
	return &HadoopService{
		manager:     manager,
		cloud:       cloud,
		user:        user,
		replication: replication,
		heapSizeMB:  heapSizeMB,
		log:         logger,
	}
}

// Name returns the service name
func (service *HadoopService) Name() string {
	return "hadoop"
}

// Description returns the service description
func (service *HadoopService) Description() string {
	return "Apache Hadoop " + HadoopVersion + " (HDFS and YARN)"
}

// URL returns the project URL
func (service *HadoopService) URL() string {
	return "https://hadoop.apache.org"
}

// Operations lists the lifecycle operations
func (service *HadoopService) Operations() []string {
	return []string{"install", "configure", "format", "start", "stop"}
}

// Plan returns the dispatcher operations for operation
func (service *HadoopService) Plan(operation string) ([]clustermanager.Operation, error) {
	switch operation {
	case "install":
		return []clustermanager.Operation{{
			Name:       "install hadoop",
			Roles:      hadoopRoles,
			Discipline: clustermanager.Parallel,
			Run:        service.install,
		}}, nil
	case "configure":
		layout, err := service.Layout()
		if err != nil {
			return nil, err
		}
		return []clustermanager.Operation{{
			Name:       "configure hadoop",
			Roles:      hadoopRoles,
			Discipline: clustermanager.Parallel,
			Run: func(node clustermanager.Node) error {
				return service.configure(node, layout)
			},
		}}, nil
	case "format":
		return []clustermanager.Operation{{
			Name:       "format hdfs",
			Roles:      []clustermanager.Role{clustermanager.RoleMasters},
			Discipline: clustermanager.Serial,
			Run:        service.format,
		}}, nil
	case "start", "stop":
		// masters first so the slaves find the namenode and resourcemanager
		return []clustermanager.Operation{
			service.daemonOperation(operation, clustermanager.RoleMasters),
			service.daemonOperation(operation, clustermanager.RoleSlaves),
		}, nil
	}
	return nil, unknownOperation(service, operation)
}

// Layout resolves the master against live cloud state and combines it with the role assignment
func (service *HadoopService) Layout() (HadoopLayout, error) {
	if service.cloud == nil {
		return HadoopLayout{}, fmt.Errorf("no cloud provider to resolve the hadoop master")
	}
	roles := service.manager.Roles()
	masterName := roles.Master()

	found, err := service.cloud.FindServers(masterName)
	if err != nil {
		return HadoopLayout{}, err
	}
	var matches []clustermanager.Server
	for _, server := range found {
		if server.Name == masterName {
			matches = append(matches, server)
		}
	}

	switch {
	case len(matches) == 0:
		return HadoopLayout{}, &clustermanager.MissingReferenceError{Kind: "server", Name: masterName}
	case len(matches) > 1:
		var ids []string
		for _, server := range matches {
			ids = append(ids, server.ID)
		}
		sort.Strings(ids)
		return HadoopLayout{}, &clustermanager.AmbiguousIdentityError{Kind: "server", Name: masterName, IDs: ids}
	case len(matches[0].PrivateIPs) == 0:
		return HadoopLayout{}, fmt.Errorf("master '%s' has no private IP", masterName)
	}

	service.log.Infof("hadoop master %s resolved to %s", masterName, matches[0].PrivateIPs[0])
	return HadoopLayout{
		MasterName:  masterName,
		MasterIP:    matches[0].PrivateIPs[0],
		Slaves:      roles.Slaves(),
		Replication: service.replication,
	}, nil
}

func (service *HadoopService) install(node clustermanager.Node) error {
	comm := service.manager.Communicator()
	if err := clustermanager.RunCommands(comm, service.manager.EventService(), node, jdkCommands()); err != nil {
		return err
	}
	return fetchAndExtract(service.manager, node, HadoopPackageURL, hadoopArchive, hadoopDir)
}

func (service *HadoopService) configure(node clustermanager.Node, layout HadoopLayout) error {
	comm := service.manager.Communicator()
	events := service.manager.EventService()

	role := clustermanager.RoleSlaves
	if service.manager.Roles().HasRole(node.Name, clustermanager.RoleMasters) {
		role = clustermanager.RoleMasters
	}

	files, err := GenerateServiceProperties(role, layout)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		events.AddEvent(node.Name, "write "+name)
		if err := comm.WriteFile(node, path.Join(HadoopConfDir, name), files[name], clustermanager.AllRead); err != nil {
			return err
		}
	}

	events.AddEvent(node.Name, "configure hadoop-env.sh")
	env := path.Join(HadoopConfDir, "hadoop-env.sh")
	if err := setExport(comm, node, env, "HADOOP_HEAPSIZE", fmt.Sprintf("%d", service.heapSizeMB)); err != nil {
		return err
	}
	return setExport(comm, node, env, "JAVA_HOME", JavaHome)
}

// setExport rewrites any export of key in file, commented out or not, and
// appends one when there was none
func setExport(comm clustermanager.NodeCommunicator, node clustermanager.Node, file string, key string, value string) error {
	line := fmt.Sprintf("export %s=%s", key, value)
	command := fmt.Sprintf("sed -i -E %s %s",
		quote(fmt.Sprintf("s|^#? *export %s=.*$|%s|", key, line)), quote(file))
	if _, err := comm.Run(node, command, clustermanager.RunOptions{}); err != nil {
		return err
	}
	return clustermanager.AppendLineIfAbsent(comm, node, file, line, false)
}

func (service *HadoopService) format(node clustermanager.Node) error {
	return clustermanager.RunCommands(service.manager.Communicator(), service.manager.EventService(), node, []clustermanager.NodeCommand{
		{
			EventName: "format namenode",
			Command:   path.Join(hadoopDir, "bin", "hdfs") + " namenode -format -force -nonInteractive",
		},
		{
			EventName: "check namenode",
			Command:   "cat /tmp/hadoop-$USER/dfs/name/current/VERSION",
			Options:   clustermanager.RunOptions{WarnOnly: true},
		},
	})
}

func (service *HadoopService) daemonOperation(action string, role clustermanager.Role) clustermanager.Operation {
	daemons := hadoopDaemons[role]
	if action == "stop" {
		reversed := make([]hadoopDaemon, 0, len(daemons))
		for i := len(daemons) - 1; i >= 0; i-- {
			reversed = append(reversed, daemons[i])
		}
		daemons = reversed
	}

	return clustermanager.Operation{
		Name:       fmt.Sprintf("%s hadoop %s", action, role),
		Roles:      []clustermanager.Role{role},
		Discipline: clustermanager.Serial,
		Run: func(node clustermanager.Node) error {
			var commands []clustermanager.NodeCommand
			for _, daemon := range daemons {
				commands = append(commands, clustermanager.NodeCommand{
					EventName: action + " " + daemon.name,
					Command:   daemon.command(homeDir(service.user), action),
					Options:   clustermanager.RunOptions{Env: map[string]string{"JAVA_HOME": JavaHome}},
				})
			}
			return clustermanager.RunCommands(service.manager.Communicator(), service.manager.EventService(), node, commands)
		},
	}
}
