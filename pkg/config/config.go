// Package config builds the immutable ClusterSpec from the environment
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Environment variables read by Load
const (
	EnvUsername          = "OS_USERNAME"
	EnvPassword          = "OS_PASSWORD"
	EnvTenantName        = "OS_TENANT_NAME"
	EnvAuthURL           = "OS_AUTH_URL"
	EnvRegion            = "OS_REGION_NAME"
	EnvInsecure          = "LEADS_CLUSTER_INSECURE"
	EnvNodeCount         = "LEADS_CLUSTER_NUM_OF_NODES"
	EnvClusterName       = "LEADS_CLUSTER_NAME"
	EnvNodePrefix        = "LEADS_CLUSTER_NODE_PREFIX"
	EnvPrimarySSHKey     = "LEADS_CLUSTER_PRIMARY_SSH_KEY"
	EnvAdditionalSSHKeys = "LEADS_CLUSTER_ADD_SSH_KEYS"
	EnvMaster            = "LEADS_CLUSTER_MASTER"
	EnvSlaves            = "LEADS_CLUSTER_SLAVES"
	EnvImage             = "LEADS_CLUSTER_IMAGE"
	EnvFlavor            = "LEADS_CLUSTER_FLAVOR"
	EnvSSHUser           = "LEADS_CLUSTER_SSH_USER"
	EnvPrivateKey        = "LEADS_CLUSTER_SSH_PRIVATE_KEY"
	EnvGatewayUser       = "LEADS_CLUSTER_GATEWAY_USER"
	EnvTopologyDir       = "LEADS_CLUSTER_TOPOLOGY_DIR"
	EnvWaitTimeout       = "LEADS_CLUSTER_WAIT_TIMEOUT"
	EnvHadoopReplication = "LEADS_HADOOP_REPLICATION"
	EnvHadoopHeapSize    = "LEADS_HADOOP_HEAPSIZE"
)

const (
	// DefaultClusterName is used when LEADS_CLUSTER_NAME is unset
	DefaultClusterName = "leads_m24_cluster"
	// DefaultPrimarySSHKey is the key pair name used when none is configured
	DefaultPrimarySSHKey = "wb-new-key"
	// DefaultImage is the image every node boots
	DefaultImage = "Ubuntu 14.04 LTS x64"
	// DefaultFlavor is the flavor every node boots with
	DefaultFlavor = "cloudcompute.s"
)

// InternalPorts are opened between members of the internal group
var InternalPorts = []int{54200, 55200, 22}

// ExternalPorts are opened to the world
var ExternalPorts = []int{22}

// ClusterSpec is the complete deployment configuration. It is built once by
// Load and passed by value, never changed afterwards.
type ClusterSpec struct {
	Username   string
	Password   string
	TenantName string
	AuthURL    string
	Region     string
	Insecure   bool

	NodeCount         int
	Name              string
	NodePrefix        string
	PrimarySSHKey     string
	AdditionalSSHKeys []string
	MasterIndex       int
	SlaveIndices      []int

	Image  string
	Flavor string

	SSHUser        string
	PrivateKeyPath string
	GatewayUser    string
	TopologyDir    string
	WaitTimeout    time.Duration

	HadoopReplication int
	HadoopHeapSizeMB  int
}

// SetDefaults registers the default of every optional setting on v. An
// environment variable that is set but empty counts as set, so
// LEADS_CLUSTER_SLAVES="" means no slaves.
func SetDefaults(v *viper.Viper) {
	v.AllowEmptyEnv(true)
	v.SetDefault(EnvInsecure, true)
	v.SetDefault(EnvClusterName, DefaultClusterName)
	v.SetDefault(EnvPrimarySSHKey, DefaultPrimarySSHKey)
	v.SetDefault(EnvAdditionalSSHKeys, "")
	v.SetDefault(EnvMaster, 0)
	v.SetDefault(EnvImage, DefaultImage)
	v.SetDefault(EnvFlavor, DefaultFlavor)
	v.SetDefault(EnvSSHUser, "ubuntu")
	v.SetDefault(EnvPrivateKey, "~/.ssh/id_rsa")
	v.SetDefault(EnvGatewayUser, "forward")
	v.SetDefault(EnvTopologyDir, ".")
	v.SetDefault(EnvWaitTimeout, 10*time.Minute)
	v.SetDefault(EnvHadoopReplication, 0)
	v.SetDefault(EnvHadoopHeapSize, 1024)
}

// Load reads and validates the ClusterSpec. v must have AutomaticEnv enabled
// or carry the values from a config file.
func Load(v *viper.Viper) (ClusterSpec, error) {
	SetDefaults(v)

	spec := ClusterSpec{
		Username:         v.GetString(EnvUsername),
		Password:         v.GetString(EnvPassword),
		TenantName:       v.GetString(EnvTenantName),
		AuthURL:          v.GetString(EnvAuthURL),
		Region:           v.GetString(EnvRegion),
		Insecure:         v.GetBool(EnvInsecure),
		Name:             v.GetString(EnvClusterName),
		NodePrefix:       v.GetString(EnvNodePrefix),
		PrimarySSHKey:    v.GetString(EnvPrimarySSHKey),
		Image:            v.GetString(EnvImage),
		Flavor:           v.GetString(EnvFlavor),
		SSHUser:          v.GetString(EnvSSHUser),
		GatewayUser:      v.GetString(EnvGatewayUser),
		TopologyDir:      v.GetString(EnvTopologyDir),
		WaitTimeout:      v.GetDuration(EnvWaitTimeout),
		HadoopHeapSizeMB: v.GetInt(EnvHadoopHeapSize),
	}

	for _, required := range []string{EnvUsername, EnvPassword, EnvTenantName, EnvAuthURL, EnvNodeCount} {
		if !v.IsSet(required) || v.GetString(required) == "" {
			return spec, fmt.Errorf("%s is required", required)
		}
	}

	count, err := strconv.Atoi(strings.TrimSpace(v.GetString(EnvNodeCount)))
	if err != nil {
		return spec, fmt.Errorf("%s: %v", EnvNodeCount, err)
	}
	spec.NodeCount = count

	if spec.NodePrefix == "" {
		spec.NodePrefix = spec.Name + "_node"
	}

	spec.AdditionalSSHKeys = splitList(v.GetString(EnvAdditionalSSHKeys))

	spec.MasterIndex, err = strconv.Atoi(strings.TrimSpace(v.GetString(EnvMaster)))
	if err != nil {
		return spec, fmt.Errorf("%s: %v", EnvMaster, err)
	}
	slaves := v.GetString(EnvSlaves)
	if !v.IsSet(EnvSlaves) {
		slaves = defaultSlaves(spec.NodeCount)
	}
	spec.SlaveIndices, err = parseIndices(slaves)
	if err != nil {
		return spec, fmt.Errorf("%s: %v", EnvSlaves, err)
	}

	spec.PrivateKeyPath, err = homedir.Expand(v.GetString(EnvPrivateKey))
	if err != nil {
		return spec, err
	}

	spec.HadoopReplication = v.GetInt(EnvHadoopReplication)
	if spec.HadoopReplication <= 0 {
		spec.HadoopReplication = defaultReplication(len(spec.SlaveIndices))
	}

	return spec, spec.Validate()
}

// defaultSlaves makes node 1 the only slave, or no slave on a single node
func defaultSlaves(count int) string {
	if count > 1 {
		return "1"
	}
	return ""
}

// Validate checks the ClusterSpec invariants
func (spec ClusterSpec) Validate() error {
	if spec.NodeCount < 1 {
		return fmt.Errorf("at least 1 node is needed. %d was provided", spec.NodeCount)
	}
	if spec.Name == "" {
		return errors.New("cluster name must not be empty")
	}
	if strings.ContainsAny(spec.Name, " \t\n,/") {
		return fmt.Errorf("cluster name '%s' cannot be used as a name prefix", spec.Name)
	}
	if spec.MasterIndex < 0 {
		return fmt.Errorf("master index must not be negative, %d given", spec.MasterIndex)
	}
	for _, index := range spec.SlaveIndices {
		if index < 0 {
			return fmt.Errorf("slave index must not be negative, %d given", index)
		}
		if index == spec.MasterIndex {
			return fmt.Errorf("node %d cannot be master and slave", index)
		}
	}
	if spec.HadoopHeapSizeMB < 1 {
		return fmt.Errorf("hadoop heap size must be positive, %d given", spec.HadoopHeapSizeMB)
	}
	return nil
}

// ExternalSecurityGroupName is the group that allows SSH from anywhere
func (spec ClusterSpec) ExternalSecurityGroupName() string {
	return spec.Name + "_external_access"
}

// InternalSecurityGroupName is the group that allows cluster traffic
func (spec ClusterSpec) InternalSecurityGroupName() string {
	return spec.Name + "_internal"
}

// NodeMetadata is attached to every instance of the cluster
func (spec ClusterSpec) NodeMetadata() map[string]string {
	return map[string]string{clustermanager.ClusterNameMetadataKey: spec.Name}
}

// Plan turns the ClusterSpec into the desired cloud state
func (spec ClusterSpec) Plan() clustermanager.ClusterPlan {
	external := clustermanager.SecurityGroupSpec{
		Name:        spec.ExternalSecurityGroupName(),
		Description: "External access to leads project demo cluster",
	}
	for _, port := range ExternalPorts {
		external.Rules = append(external.Rules, clustermanager.SecurityGroupRule{Protocol: "tcp", Port: port, CIDR: "0.0.0.0/0"})
	}

	internal := clustermanager.SecurityGroupSpec{
		Name:        spec.InternalSecurityGroupName(),
		Description: "Internal for leads project demo cluster",
	}
	for _, port := range InternalPorts {
		internal.Rules = append(internal.Rules, clustermanager.SecurityGroupRule{Protocol: "tcp", Port: port, SelfSource: true})
	}

	server := clustermanager.ServerSpec{
		Image:    spec.Image,
		Flavor:   spec.Flavor,
		KeyName:  spec.PrimarySSHKey,
		Metadata: spec.NodeMetadata(),
	}
	if len(spec.AdditionalSSHKeys) > 0 {
		server.UserData = clustermanager.CloudInitWithSSHKeys(spec.AdditionalSSHKeys)
		server.ConfigDrive = true
	}

	return clustermanager.ClusterPlan{
		NodePrefix:     spec.NodePrefix,
		NodeCount:      spec.NodeCount,
		SecurityGroups: []clustermanager.SecurityGroupSpec{external, internal},
		Server:         server,
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseIndices(value string) ([]int, error) {
	var indices []int
	for _, item := range splitList(value) {
		index, err := strconv.Atoi(item)
		if err != nil {
			return nil, err
		}
		indices = append(indices, index)
	}
	return indices, nil
}

func defaultReplication(slaves int) int {
	if slaves < 1 {
		return 1
	}
	if slaves > 3 {
		return 3
	}
	return slaves
}
