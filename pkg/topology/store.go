// Package topology persists the realized cluster as flat files: the node
// names, their private addresses and an SSH client configuration.
package topology

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/spf13/afero"
)

const (
	// HostsFile holds the comma separated node names
	HostsFile = "cluster_hosts"
	// PrivateIPsFile holds the comma separated private addresses
	PrivateIPsFile = "cluster_private_ips"
	// SSHConfigFile holds the generated ssh_config stanzas
	SSHConfigFile = "cluster_ssh_config"
)

const sshConfigTpl = `
Host %s
    Hostname %s
    ProxyCommand ssh %s@%s nc -q0 %%h %%p
    Port 22
    User %s
    `

// Topology is the index aligned view of the persisted cluster
type Topology struct {
	Hostnames  []string
	PrivateIPs []string
}

// Nodes joins hostnames and addresses into nodes
func (topology Topology) Nodes() []clustermanager.Node {
	nodes := make([]clustermanager.Node, 0, len(topology.Hostnames))
	for i, name := range topology.Hostnames {
		nodes = append(nodes, clustermanager.Node{Name: name, PrivateIPAddress: topology.PrivateIPs[i]})
	}
	return nodes
}

// Store reads and writes the topology files in one directory
type Store struct {
	fs          afero.Fs
	dir         string
	gateway     string
	user        string
	gatewayUser string
}

// NewStore creates a store rooted at dir. gateway, user and gatewayUser are
// only used to render the SSH configuration.
func NewStore(fs afero.Fs, dir string, gateway string, user string, gatewayUser string) *Store {
	return &Store{fs: fs, dir: dir, gateway: gateway, user: user, gatewayUser: gatewayUser}
}

// Save writes all three files for nodes. Only a cluster create run calls it.
func (store *Store) Save(nodes []clustermanager.Node) error {
	names := make([]string, 0, len(nodes))
	ips := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if node.PrivateIPAddress == "" {
			return fmt.Errorf("node '%s' has no private address", node.Name)
		}
		names = append(names, node.Name)
		ips = append(ips, node.PrivateIPAddress)
	}

	if err := store.fs.MkdirAll(store.dir, 0755); err != nil {
		return err
	}
	if err := store.write(SSHConfigFile, store.SSHConfig(nodes)); err != nil {
		return err
	}
	if err := store.write(HostsFile, strings.Join(names, ",")); err != nil {
		return err
	}
	return store.write(PrivateIPsFile, strings.Join(ips, ","))
}

// LoadHostnames returns the node names in cluster order
func (store *Store) LoadHostnames() ([]string, error) {
	return store.readList(HostsFile)
}

// LoadPrivateIPs returns the private addresses in cluster order
func (store *Store) LoadPrivateIPs() ([]string, error) {
	return store.readList(PrivateIPsFile)
}

// Load returns both lists and fails when they are not aligned
func (store *Store) Load() (Topology, error) {
	hostnames, err := store.LoadHostnames()
	if err != nil {
		return Topology{}, err
	}
	ips, err := store.LoadPrivateIPs()
	if err != nil {
		return Topology{}, err
	}
	if len(hostnames) != len(ips) {
		return Topology{}, fmt.Errorf("topology is corrupt: %d hosts but %d private addresses", len(hostnames), len(ips))
	}
	if len(hostnames) == 0 {
		return Topology{}, fmt.Errorf("topology in '%s' is empty, create the cluster first", store.dir)
	}
	return Topology{Hostnames: hostnames, PrivateIPs: ips}, nil
}

// SSHConfig renders one ssh_config stanza per node, each tunneling through the gateway
func (store *Store) SSHConfig(nodes []clustermanager.Node) string {
	config := ""
	for _, node := range nodes {
		config += fmt.Sprintf(sshConfigTpl, node.Name, node.PrivateIPAddress, store.gatewayUser, store.gateway, store.user) + "\n"
	}
	return config + "\n"
}

// ReadSSHConfig returns the stored ssh_config content
func (store *Store) ReadSSHConfig() (string, error) {
	content, err := afero.ReadFile(store.fs, filepath.Join(store.dir, SSHConfigFile))
	return string(content), err
}

// SSHConfigPath returns the path of the ssh_config file
func (store *Store) SSHConfigPath() string {
	return filepath.Join(store.dir, SSHConfigFile)
}

func (store *Store) write(name string, content string) error {
	return afero.WriteFile(store.fs, filepath.Join(store.dir, name), []byte(content), 0644)
}

func (store *Store) readList(name string) ([]string, error) {
	content, err := afero.ReadFile(store.fs, filepath.Join(store.dir, name))
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return []string{}, nil
	}
	return strings.Split(trimmed, ","), nil
}

// GatewayHost derives the SSH gateway from the identity endpoint, e.g.
// https://identity-hamm5.example.com:5000/v2.0 gives ssh.hamm5.example.com
func GatewayHost(authURL string) (string, error) {
	parsed, err := url.Parse(authURL)
	if err != nil {
		return "", err
	}
	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("no host in auth url '%s'", authURL)
	}
	host = strings.Replace(host, "identity", "ssh", -1)
	return strings.Replace(host, "-", ".", -1), nil
}
