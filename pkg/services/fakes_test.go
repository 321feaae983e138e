package services

import (
	"strings"
	"sync"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeCommunicator struct {
	mutex    sync.Mutex
	commands map[string][]string
	options  map[string][]clustermanager.RunOptions
	files    map[string]map[string]string
	present  map[string]bool
	failOn   string
}

func newFakeCommunicator() *fakeCommunicator {
	return &fakeCommunicator{
		commands: map[string][]string{},
		options:  map[string][]clustermanager.RunOptions{},
		files:    map[string]map[string]string{},
		present:  map[string]bool{},
	}
}

func (comm *fakeCommunicator) Run(node clustermanager.Node, command string, opts clustermanager.RunOptions) (clustermanager.Result, error) {
	comm.mutex.Lock()
	defer comm.mutex.Unlock()
	comm.commands[node.Name] = append(comm.commands[node.Name], command)
	comm.options[node.Name] = append(comm.options[node.Name], opts)

	if strings.HasPrefix(command, "test -e ") {
		path := strings.Trim(strings.TrimPrefix(command, "test -e "), "'")
		if comm.present[path] {
			return clustermanager.Result{}, nil
		}
		return clustermanager.Result{ExitCode: 1}, nil
	}
	if comm.failOn != "" && strings.Contains(command, comm.failOn) {
		if opts.WarnOnly {
			return clustermanager.Result{ExitCode: 1}, nil
		}
		return clustermanager.Result{ExitCode: 1}, &clustermanager.RemoteCommandError{Node: node.Name, Command: command, ExitCode: 1}
	}
	return clustermanager.Result{}, nil
}

func (comm *fakeCommunicator) RunCmd(node clustermanager.Node, command string) (string, error) {
	result, err := comm.Run(node, command, clustermanager.RunOptions{})
	return result.Stdout, err
}

func (comm *fakeCommunicator) WriteFile(node clustermanager.Node, filePath string, content string, permission clustermanager.FilePermission) error {
	comm.mutex.Lock()
	defer comm.mutex.Unlock()
	if comm.files[node.Name] == nil {
		comm.files[node.Name] = map[string]string{}
	}
	comm.files[node.Name][filePath] = content
	return nil
}

func (comm *fakeCommunicator) UploadFile(node clustermanager.Node, localPath string, remotePath string) error {
	return nil
}

func (comm *fakeCommunicator) ran(nodeName string, fragment string) bool {
	for _, command := range comm.commands[nodeName] {
		if strings.Contains(command, fragment) {
			return true
		}
	}
	return false
}

type fakeCloud struct {
	servers []clustermanager.Server
}

func (cloud *fakeCloud) FindSecurityGroups(name string) ([]clustermanager.SecurityGroup, error) {
	return nil, nil
}

func (cloud *fakeCloud) CreateSecurityGroup(spec clustermanager.SecurityGroupSpec) (clustermanager.SecurityGroup, error) {
	return clustermanager.SecurityGroup{}, nil
}

func (cloud *fakeCloud) FindServers(name string) ([]clustermanager.Server, error) {
	var found []clustermanager.Server
	for _, server := range cloud.servers {
		if strings.HasPrefix(server.Name, name) {
			found = append(found, server)
		}
	}
	return found, nil
}

func (cloud *fakeCloud) CreateServer(spec clustermanager.ServerSpec) (clustermanager.Server, error) {
	return clustermanager.Server{}, nil
}

func (cloud *fakeCloud) WaitUntilRunning(servers []clustermanager.Server) ([]clustermanager.Node, error) {
	return nil, nil
}

func (cloud *fakeCloud) ListServers() ([]clustermanager.Server, error) {
	return cloud.servers, nil
}

func testLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// demoManager returns a three node cluster with demo-node-0 as master and
// demo-node-1 as the only slave
func demoManager(comm clustermanager.NodeCommunicator) *clustermanager.Manager {
	cluster := clustermanager.Cluster{
		Name: "demo",
		Nodes: []clustermanager.Node{
			{Name: "demo-node-0", PrivateIPAddress: "10.0.0.5"},
			{Name: "demo-node-1", PrivateIPAddress: "10.0.0.6"},
			{Name: "demo-node-2", PrivateIPAddress: "10.0.0.7"},
		},
	}
	roles, err := clustermanager.NewRoleAssignment(cluster.Hostnames(), 0, []int{1})
	if err != nil {
		panic(err)
	}
	return clustermanager.NewClusterManager(cluster, roles, comm, nil, testLogger())
}
