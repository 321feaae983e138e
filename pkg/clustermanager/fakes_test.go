package clustermanager

import (
	"fmt"
	"strings"
	"sync"
)

type fakeCloud struct {
	groups        []SecurityGroup
	servers       []Server
	groupCreates  int
	serverCreates int
	waits         int
	createdSpecs  []ServerSpec
}

func (cloud *fakeCloud) FindSecurityGroups(name string) ([]SecurityGroup, error) {
	// providers may match loosely, the reconciler must filter
	var found []SecurityGroup
	for _, group := range cloud.groups {
		if strings.HasPrefix(group.Name, name) {
			found = append(found, group)
		}
	}
	return found, nil
}

func (cloud *fakeCloud) CreateSecurityGroup(spec SecurityGroupSpec) (SecurityGroup, error) {
	cloud.groupCreates++
	group := SecurityGroup{ID: fmt.Sprintf("sg-%d", len(cloud.groups)), Name: spec.Name, Description: spec.Description, Rules: spec.Rules}
	cloud.groups = append(cloud.groups, group)
	return group, nil
}

func (cloud *fakeCloud) FindServers(name string) ([]Server, error) {
	var found []Server
	for _, server := range cloud.servers {
		if strings.HasPrefix(server.Name, name) {
			found = append(found, server)
		}
	}
	return found, nil
}

func (cloud *fakeCloud) CreateServer(spec ServerSpec) (Server, error) {
	cloud.serverCreates++
	cloud.createdSpecs = append(cloud.createdSpecs, spec)
	server := Server{ID: fmt.Sprintf("id-%d", len(cloud.servers)), Name: spec.Name, Status: "BUILD", Metadata: spec.Metadata}
	cloud.servers = append(cloud.servers, server)
	return server, nil
}

// WaitUntilRunning answers in reverse order to make sure callers do not
// depend on the provider ordering
func (cloud *fakeCloud) WaitUntilRunning(servers []Server) ([]Node, error) {
	cloud.waits++
	var nodes []Node
	for i := len(servers) - 1; i >= 0; i-- {
		index := cloud.indexOf(servers[i].ID)
		cloud.servers[index].Status = "ACTIVE"
		cloud.servers[index].PrivateIPs = []string{fmt.Sprintf("10.0.0.%d", index+5)}
		nodes = append(nodes, Node{
			ID:               servers[i].ID,
			Name:             servers[i].Name,
			PrivateIPAddress: cloud.servers[index].PrivateIPs[0],
			Status:           "ACTIVE",
		})
	}
	return nodes, nil
}

func (cloud *fakeCloud) ListServers() ([]Server, error) {
	return cloud.servers, nil
}

func (cloud *fakeCloud) indexOf(id string) int {
	for i, server := range cloud.servers {
		if server.ID == id {
			return i
		}
	}
	return -1
}

type fakeCommunicator struct {
	mutex    sync.Mutex
	commands map[string][]string
	files    map[string]map[string]string
	failOn   string
	exitCode int
}

func newFakeCommunicator() *fakeCommunicator {
	return &fakeCommunicator{commands: map[string][]string{}, files: map[string]map[string]string{}}
}

func (comm *fakeCommunicator) Run(node Node, command string, opts RunOptions) (Result, error) {
	comm.mutex.Lock()
	defer comm.mutex.Unlock()
	comm.commands[node.Name] = append(comm.commands[node.Name], command)
	if comm.failOn != "" && strings.Contains(command, comm.failOn) {
		result := Result{ExitCode: comm.exitCode}
		if opts.WarnOnly {
			return result, nil
		}
		return result, &RemoteCommandError{Node: node.Name, Command: command, ExitCode: comm.exitCode}
	}
	return Result{}, nil
}

func (comm *fakeCommunicator) RunCmd(node Node, command string) (string, error) {
	result, err := comm.Run(node, command, RunOptions{})
	return result.Stdout, err
}

func (comm *fakeCommunicator) WriteFile(node Node, filePath string, content string, permission FilePermission) error {
	comm.mutex.Lock()
	defer comm.mutex.Unlock()
	if comm.files[node.Name] == nil {
		comm.files[node.Name] = map[string]string{}
	}
	comm.files[node.Name][filePath] = content
	return nil
}

func (comm *fakeCommunicator) UploadFile(node Node, localPath string, remotePath string) error {
	return comm.WriteFile(node, remotePath, "@"+localPath, AllRead)
}

type recordingEvents struct {
	mutex  sync.Mutex
	events []string
}

func (events *recordingEvents) AddEvent(name string, message string) {
	events.mutex.Lock()
	defer events.mutex.Unlock()
	events.events = append(events.events, name+": "+message)
}
