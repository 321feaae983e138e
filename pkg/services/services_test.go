package services

import (
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestServiceRegistry(t *testing.T) {
	assert.Equal(t, ServiceNames(), []string{"hadoop", "infinispan", "ssh-keys"})

	registry := NewServiceRegistry(demoManager(newFakeCommunicator()), specForTest(), nil, testLogger())
	assert.Equal(t, registry.ServiceExists("hadoop"), true)
	assert.Equal(t, registry.ServiceExists("spark"), false)
	assert.Equal(t, registry.GetService("spark") == nil, true)
	assert.Equal(t, registry.GetService("infinispan").Operations(), []string{"install", "start", "stop"})

	if err := registry.Run("spark", "start"); err == nil {
		t.Error("unknown service accepted")
	}
	if err := registry.Run("hadoop", "restart"); err == nil {
		t.Error("unknown operation accepted")
	}
}

func TestSSHKeysDeploy(t *testing.T) {
	comm := newFakeCommunicator()
	manager := demoManager(comm)
	registry := NewServiceRegistry(manager, specForTest(), nil, testLogger())

	if err := registry.Run("ssh-keys", "deploy"); err != nil {
		t.Fatal(err)
	}

	for _, node := range manager.Cluster().Nodes {
		assert.Equal(t, len(comm.commands[node.Name]), 2)
		assert.Equal(t, comm.ran(node.Name, "'ssh-rsa AAAA alice'"), true)
		assert.Equal(t, comm.ran(node.Name, "'ssh-rsa BBBB bob'"), true)
		assert.Equal(t, comm.ran(node.Name, ".ssh/authorized_keys"), true)
	}
}

func TestSSHKeysDeploy_NoKeys(t *testing.T) {
	comm := newFakeCommunicator()
	spec := specForTest()
	spec.AdditionalSSHKeys = nil
	registry := NewServiceRegistry(demoManager(comm), spec, nil, testLogger())

	if err := registry.Run("ssh-keys", "deploy"); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(comm.commands), 0)
}
