package clustermanager

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/magiconair/properties/assert"
)

func getDefaultManager(t *testing.T, comm NodeCommunicator, events EventService) *Manager {
	cluster := Cluster{Name: "demo"}
	for i, host := range demoHosts {
		cluster.Nodes = append(cluster.Nodes, Node{Name: host, PrivateIPAddress: fmt.Sprintf("10.0.0.%d", 5+i)})
	}
	roles, err := NewRoleAssignment(cluster.Hostnames(), 0, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	return NewClusterManager(cluster, roles, comm, events, testLogger())
}

func TestManager_DispatchSkipsIneligibleNodes(t *testing.T) {
	comm := newFakeCommunicator()
	manager := getDefaultManager(t, comm, nil)

	err := manager.Dispatch(Operation{
		Name:  "masters only",
		Roles: []Role{RoleMasters},
		Run: func(node Node) error {
			_, err := comm.RunCmd(node, "hostname")
			return err
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(comm.commands["demo-node-0"]), 1)
	assert.Equal(t, len(comm.commands["demo-node-1"]), 0)
	assert.Equal(t, len(comm.commands["demo-node-2"]), 0)
}

func TestManager_DispatchOnSlaveTargetIsNoop(t *testing.T) {
	comm := newFakeCommunicator()
	manager := getDefaultManager(t, comm, nil)
	slave, _ := manager.NodeByName("demo-node-1")

	op := Operation{Name: "format", Roles: []Role{RoleMasters}, Run: func(node Node) error {
		_, err := comm.RunCmd(node, "format")
		return err
	}}

	assert.Equal(t, manager.Eligible(op, *slave), false)
	if err := manager.Dispatch(op); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(comm.commands["demo-node-1"]), 0)
}

func TestManager_DispatchWithoutRolesTargetsAll(t *testing.T) {
	manager := getDefaultManager(t, newFakeCommunicator(), nil)
	var mutex sync.Mutex
	visited := map[string]bool{}

	err := manager.Dispatch(Operation{Name: "all", Run: func(node Node) error {
		mutex.Lock()
		defer mutex.Unlock()
		visited[node.Name] = true
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(visited), 3)
}

func TestManager_SerialKeepsHostOrderAndStops(t *testing.T) {
	manager := getDefaultManager(t, newFakeCommunicator(), nil)
	var order []string

	err := manager.Dispatch(Operation{
		Name:       "start",
		Discipline: Serial,
		Run: func(node Node) error {
			order = append(order, node.Name)
			if node.Name == "demo-node-1" {
				return errors.New("boom")
			}
			return nil
		},
	})

	if err == nil {
		t.Fatal("error was swallowed")
	}
	assert.Equal(t, order, []string{"demo-node-0", "demo-node-1"})
}

func TestManager_ParallelWaitsForAll(t *testing.T) {
	events := &recordingEvents{}
	manager := getDefaultManager(t, newFakeCommunicator(), events)
	var mutex sync.Mutex
	finished := 0

	err := manager.Dispatch(Operation{
		Name: "install",
		Run: func(node Node) error {
			mutex.Lock()
			finished++
			mutex.Unlock()
			if node.Name == "demo-node-0" {
				return errors.New("download failed")
			}
			return nil
		},
	})

	if err == nil {
		t.Fatal("error was swallowed")
	}
	// barrier: every node ran even though one failed
	assert.Equal(t, finished, 3)
	assert.Equal(t, len(events.events), 5)
}

func TestRunCommands_FailFastAndWarnOnly(t *testing.T) {
	comm := newFakeCommunicator()
	comm.failOn = "confirm"
	comm.exitCode = 1
	node := Node{Name: "demo-node-0"}

	err := RunCommands(comm, nil, node, []NodeCommand{
		{Command: "format"},
		{Command: "confirm", Options: RunOptions{WarnOnly: true}},
		{Command: "after"},
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, comm.commands["demo-node-0"], []string{"format", "confirm", "after"})

	comm.commands = map[string][]string{}
	err = RunCommands(comm, nil, node, []NodeCommand{
		{Command: "confirm"},
		{Command: "after"},
	})
	if _, ok := err.(*RemoteCommandError); !ok {
		t.Fatalf("expected remote command error, got %v", err)
	}
	assert.Equal(t, comm.commands["demo-node-0"], []string{"confirm"})
}

type closingCommunicator struct {
	*fakeCommunicator
	closed int
}

func (comm *closingCommunicator) Close() error {
	comm.closed++
	return nil
}

func TestManager_CloseReleasesTransport(t *testing.T) {
	comm := &closingCommunicator{fakeCommunicator: newFakeCommunicator()}
	if err := getDefaultManager(t, comm, nil).Close(); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, comm.closed, 1)

	if err := getDefaultManager(t, newFakeCommunicator(), nil).Close(); err != nil {
		t.Fatal(err)
	}
}
