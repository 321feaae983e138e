package clustermanager

import "time"

// Node is a compute instance that belongs to the cluster
type Node struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	PrivateIPAddress string `json:"private_ip_address"`
	Status           string `json:"status"`
}

// Cluster is the realized cluster as seen after a create run
type Cluster struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
}

// Hostnames returns the node names in cluster order
func (cluster Cluster) Hostnames() []string {
	names := make([]string, 0, len(cluster.Nodes))
	for _, node := range cluster.Nodes {
		names = append(names, node.Name)
	}
	return names
}

// PrivateIPs returns the private addresses in cluster order
func (cluster Cluster) PrivateIPs() []string {
	ips := make([]string, 0, len(cluster.Nodes))
	for _, node := range cluster.Nodes {
		ips = append(ips, node.PrivateIPAddress)
	}
	return ips
}

// SecurityGroupRule opens a single port for a protocol. When SelfSource is
// set the rule admits members of the owning group instead of a CIDR.
type SecurityGroupRule struct {
	Protocol   string `json:"protocol"`
	Port       int    `json:"port"`
	CIDR       string `json:"cidr,omitempty"`
	SelfSource bool   `json:"self_source,omitempty"`
}

// SecurityGroupSpec describes a security group that must exist
type SecurityGroupSpec struct {
	Name        string
	Description string
	Rules       []SecurityGroupRule
}

// SecurityGroup is a security group known to the cloud
type SecurityGroup struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Rules       []SecurityGroupRule `json:"rules"`
}

// ServerSpec holds everything needed to boot one instance
type ServerSpec struct {
	Name           string
	Image          string
	Flavor         string
	KeyName        string
	SecurityGroups []string
	Metadata       map[string]string
	UserData       string
	ConfigDrive    bool
}

// Server is an instance as reported by the cloud
type Server struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Metadata   map[string]string `json:"metadata"`
	PrivateIPs []string          `json:"private_ips"`
	Created    time.Time         `json:"created"`
}

// NodeCommand is a single remote step of an operation
type NodeCommand struct {
	EventName string
	Command   string
	Options   RunOptions
}

// RunOptions tune how a remote command is executed
type RunOptions struct {
	Sudo     bool
	Pty      bool
	WarnOnly bool
	Env      map[string]string
}

// Result is the outcome of a remote command
type Result struct {
	Stdout   string
	ExitCode int
}
