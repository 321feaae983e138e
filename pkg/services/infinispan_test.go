package services

import (
	"strings"
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestDiscoveryList(t *testing.T) {
	tests := []struct {
		ips      []string
		expected string
	}{
		{[]string{"10.0.0.5", "10.0.0.6"}, "10.0.0.5[55200],10.0.0.6[55200]"},
		{[]string{"10.0.0.5"}, "10.0.0.5[55200]"},
		{nil, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, DiscoveryList(tt.ips, DiscoveryPort), tt.expected)
	}
}

func TestRenderInfinispanConfig(t *testing.T) {
	config, err := RenderInfinispanConfig("10.0.0.6", []string{"10.0.0.5", "10.0.0.6"})
	if err != nil {
		t.Fatal(err)
	}

	for _, expected := range []string{
		`<property name="initial_hosts">10.0.0.5[55200],10.0.0.6[55200]</property>`,
		`<property name="num_initial_members">2</property>`,
		`<inet-address value="${jboss.bind.address:10.0.0.6}"/>`,
		`<socket-binding name="jgroups-tcp" port="55200"/>`,
	} {
		if !strings.Contains(config, expected) {
			t.Errorf("rendered config misses %s", expected)
		}
	}
}

func TestRenderInfinispanInitScript(t *testing.T) {
	script, err := RenderInfinispanInitScript("ubuntu")
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, strings.HasPrefix(script, "#!/bin/sh\n"), true)
	assert.Equal(t, strings.Contains(script, "INFINISPAN_HOME=/home/ubuntu/infinispan-server-7.0.1-SNAPSHOT\n"), true)
	assert.Equal(t, strings.Contains(script, "INFINISPAN_CONFIG=infinispan-config.xml\n"), true)
}

func TestInfinispanInstall(t *testing.T) {
	comm := newFakeCommunicator()
	comm.present[infinispanArchive] = true
	manager := demoManager(comm)
	registry := NewServiceRegistry(manager, specForTest(), nil, testLogger())

	if err := registry.Run("infinispan", "install"); err != nil {
		t.Fatal(err)
	}

	for _, node := range manager.Cluster().Nodes {
		// archive already there, directory missing
		assert.Equal(t, comm.ran(node.Name, "wget"), false)
		assert.Equal(t, comm.ran(node.Name, "tar zxvf 'infinispan.tgz'"), false)
		assert.Equal(t, comm.ran(node.Name, "tar zxvf infinispan.tgz"), true)
		assert.Equal(t, comm.ran(node.Name, "update-rc.d infinispan-server enable"), true)

		config := comm.files[node.Name][InfinispanConfigPath]
		assert.Equal(t, strings.Contains(config, "10.0.0.5[55200],10.0.0.6[55200],10.0.0.7[55200]"), true)
		assert.Equal(t, strings.Contains(config, "${jboss.bind.address:"+node.PrivateIPAddress+"}"), true)
	}
}

func TestInfinispanInstall_Fresh(t *testing.T) {
	comm := newFakeCommunicator()
	manager := demoManager(comm)

	ops, err := NewInfinispanService(manager, "ubuntu").Plan("install")
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.Dispatch(ops[0]); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, comm.ran("demo-node-2", "wget"), true)
	assert.Equal(t, comm.ran("demo-node-2", "> infinispan.INFO"), true)
}

func TestInfinispanStartStop(t *testing.T) {
	comm := newFakeCommunicator()
	manager := demoManager(comm)
	service := NewInfinispanService(manager, "ubuntu")

	for _, action := range []string{"start", "stop"} {
		ops, err := service.Plan(action)
		if err != nil {
			t.Fatal(err)
		}
		if err := manager.Dispatch(ops[0]); err != nil {
			t.Fatal(err)
		}
	}

	for _, node := range manager.Cluster().Nodes {
		assert.Equal(t, comm.commands[node.Name], []string{"service infinispan-server start", "service infinispan-server stop"})
		assert.Equal(t, comm.options[node.Name][0].Sudo, true)
		assert.Equal(t, comm.options[node.Name][0].Pty, true)
	}

	if _, err := service.Plan("format"); err == nil {
		t.Error("infinispan has no format operation")
	}
}
