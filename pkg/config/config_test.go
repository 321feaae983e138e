package config

import (
	"testing"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/magiconair/properties/assert"
	"github.com/spf13/viper"
)

func requiredSettings() *viper.Viper {
	v := viper.New()
	v.Set(EnvUsername, "user")
	v.Set(EnvPassword, "secret")
	v.Set(EnvTenantName, "tenant")
	v.Set(EnvAuthURL, "https://identity-hamm5.example.com:5000/v2.0")
	v.Set(EnvNodeCount, "3")
	return v
}

func TestLoad_Defaults(t *testing.T) {
	spec, err := Load(requiredSettings())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, spec.NodeCount, 3)
	assert.Equal(t, spec.Name, DefaultClusterName)
	assert.Equal(t, spec.NodePrefix, DefaultClusterName+"_node")
	assert.Equal(t, spec.PrimarySSHKey, DefaultPrimarySSHKey)
	assert.Equal(t, spec.MasterIndex, 0)
	assert.Equal(t, spec.SlaveIndices, []int{1})
	assert.Equal(t, len(spec.AdditionalSSHKeys), 0)
	assert.Equal(t, spec.SSHUser, "ubuntu")
	assert.Equal(t, spec.HadoopReplication, 1)
	assert.Equal(t, spec.ExternalSecurityGroupName(), "leads_m24_cluster_external_access")
	assert.Equal(t, spec.InternalSecurityGroupName(), "leads_m24_cluster_internal")
}

func TestLoad_Overrides(t *testing.T) {
	v := requiredSettings()
	v.Set(EnvClusterName, "demo")
	v.Set(EnvNodePrefix, "demo-node")
	v.Set(EnvAdditionalSSHKeys, "ssh-rsa AAA one, ssh-rsa BBB two")
	v.Set(EnvMaster, "2")
	v.Set(EnvSlaves, "0,1")

	spec, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, spec.NodePrefix, "demo-node")
	assert.Equal(t, spec.AdditionalSSHKeys, []string{"ssh-rsa AAA one", "ssh-rsa BBB two"})
	assert.Equal(t, spec.MasterIndex, 2)
	assert.Equal(t, spec.SlaveIndices, []int{0, 1})
	assert.Equal(t, spec.HadoopReplication, 2)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]func(v *viper.Viper){
		"missing count":     func(v *viper.Viper) { v.Set(EnvNodeCount, "") },
		"zero nodes":        func(v *viper.Viper) { v.Set(EnvNodeCount, "0") },
		"not a number":      func(v *viper.Viper) { v.Set(EnvNodeCount, "three") },
		"missing password":  func(v *viper.Viper) { v.Set(EnvPassword, "") },
		"bad cluster name":  func(v *viper.Viper) { v.Set(EnvClusterName, "my cluster") },
		"master is slave":   func(v *viper.Viper) { v.Set(EnvSlaves, "0") },
		"bad slave indices": func(v *viper.Viper) { v.Set(EnvSlaves, "1,x") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			v := requiredSettings()
			mutate(v)
			if _, err := Load(v); err == nil {
				t.Errorf("no error for %s", name)
			}
		})
	}
}

func TestClusterSpec_Plan(t *testing.T) {
	v := requiredSettings()
	v.Set(EnvClusterName, "demo")
	v.Set(EnvAdditionalSSHKeys, "ssh-rsa AAA one")
	spec, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}

	plan := spec.Plan()

	assert.Equal(t, plan.NodeCount, 3)
	assert.Equal(t, len(plan.SecurityGroups), 2)
	assert.Equal(t, plan.SecurityGroups[0].Name, "demo_external_access")
	assert.Equal(t, len(plan.SecurityGroups[0].Rules), 1)
	assert.Equal(t, plan.SecurityGroups[0].Rules[0].CIDR, "0.0.0.0/0")
	assert.Equal(t, plan.SecurityGroups[1].Name, "demo_internal")
	assert.Equal(t, len(plan.SecurityGroups[1].Rules), 3)
	for _, rule := range plan.SecurityGroups[1].Rules {
		assert.Equal(t, rule.SelfSource, true)
	}
	assert.Equal(t, plan.Server.ConfigDrive, true)
	assert.Equal(t, plan.Server.UserData, "#cloud-config\nssh_authorized_keys:\n  - ssh-rsa AAA one")
	assert.Equal(t, plan.Server.Metadata["leads_cluster_name"], "demo")
}

func environmentSettings(t *testing.T, env map[string]string) *viper.Viper {
	t.Setenv(EnvUsername, "user")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvTenantName, "tenant")
	t.Setenv(EnvAuthURL, "https://identity-hamm5.example.com:5000/v2.0")
	for key, value := range env {
		t.Setenv(key, value)
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func TestLoad_FromEnvironment(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		slaves []int
	}{
		{"single node without slaves", map[string]string{EnvNodeCount: "1", EnvSlaves: ""}, nil},
		{"single node with default slaves", map[string]string{EnvNodeCount: "1"}, nil},
		{"default slave", map[string]string{EnvNodeCount: "3"}, []int{1}},
		{"empty slave list", map[string]string{EnvNodeCount: "3", EnvSlaves: ""}, nil},
		{"explicit slaves", map[string]string{EnvNodeCount: "3", EnvSlaves: "1,2"}, []int{1, 2}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			spec, err := Load(environmentSettings(t, test.env))
			if err != nil {
				t.Fatal(err)
			}
			assert.Equal(t, spec.SlaveIndices, test.slaves)
			assert.Equal(t, spec.HadoopReplication, defaultReplication(len(test.slaves)))
		})
	}
}

func TestLoad_SingleNodeRoles(t *testing.T) {
	spec, err := Load(environmentSettings(t, map[string]string{EnvNodeCount: "1", EnvSlaves: ""}))
	if err != nil {
		t.Fatal(err)
	}

	hosts := []string{clustermanager.NodeName(spec.NodePrefix, 0)}
	roles, err := clustermanager.NewRoleAssignment(hosts, spec.MasterIndex, spec.SlaveIndices)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, roles.Master(), hosts[0])
	assert.Equal(t, len(roles.Slaves()), 0)
}
