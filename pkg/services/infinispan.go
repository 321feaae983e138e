package services

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
)

const (
	// InfinispanVersion is the data grid release that gets installed
	InfinispanVersion = "7.0.1-SNAPSHOT"
	// InfinispanPackageURL is where the server archive is fetched from
	InfinispanPackageURL = "https://object-hamm5.cloudandheat.com:8080/v1/AUTH_73e8d4d1688f4e1f86926d4cb897091f/infinispan/infinispan-server-7.0.1-SNAPSHOT.tgz?temp_url_sig=76fcfe3e623edea4642e443ba5ff04e076395b85&temp_url_expires=1419376046"
	// DiscoveryPort is the JGroups TCP port the members find each other on
	DiscoveryPort = 55200
	// FailureDetectionPort is the JGroups FD_SOCK port
	FailureDetectionPort = 54200

	infinispanArchive  = "infinispan.tgz"
	infinispanInfo     = "infinispan.INFO"
	infinispanDir      = "infinispan-server-" + InfinispanVersion
	infinispanConfig   = "infinispan-config.xml"
	infinispanInitName = "infinispan-server"
	infinispanInitPath = "/etc/init.d/" + infinispanInitName
)

// InfinispanConfigPath is the node-local path of the rendered configuration,
// relative to the SSH user's home
var InfinispanConfigPath = path.Join(infinispanDir, "standalone", "configuration", infinispanConfig)

//go:embed templates
var templates embed.FS

var (
	infinispanConfigTpl = template.Must(template.ParseFS(templates, "templates/infinispan-config.xml.tmpl"))
	infinispanInitTpl   = template.Must(template.ParseFS(templates, "templates/infinispan-server.sh.tmpl"))
)

// DiscoveryList renders the initial hosts of the data grid, ip[port] for every
// private IP, comma-joined
func DiscoveryList(ips []string, port int) string {
	hosts := make([]string, 0, len(ips))
	for _, ip := range ips {
		hosts = append(hosts, fmt.Sprintf("%s[%d]", ip, port))
	}
	return strings.Join(hosts, ",")
}

// RenderInfinispanConfig renders the server configuration of one node
func RenderInfinispanConfig(nodeIP string, ips []string) (string, error) {
	var buf bytes.Buffer
	err := infinispanConfigTpl.Execute(&buf, struct {
		NodeIP               string
		InitialHosts         string
		Members              int
		DiscoveryPort        int
		FailureDetectionPort int
	}{
		NodeIP:               nodeIP,
		InitialHosts:         DiscoveryList(ips, DiscoveryPort),
		Members:              len(ips),
		DiscoveryPort:        DiscoveryPort,
		FailureDetectionPort: FailureDetectionPort,
	})
	return buf.String(), err
}

// RenderInfinispanInitScript renders the init.d script running the server as user
func RenderInfinispanInitScript(user string) (string, error) {
	var buf bytes.Buffer
	err := infinispanInitTpl.Execute(&buf, struct {
		InstallDir string
		User       string
		ConfigFile string
		JavaHome   string
	}{
		InstallDir: path.Join(homeDir(user), infinispanDir),
		User:       user,
		ConfigFile: infinispanConfig,
		JavaHome:   JavaHome,
	})
	return buf.String(), err
}

// InfinispanService installs and runs the data grid on every node
type InfinispanService struct {
	manager *clustermanager.Manager
	user    string
}

func init() {
	addService("infinispan", func(registry *ServiceRegistry) ClusterService {
		return NewInfinispanService(registry.manager, registry.spec.SSHUser)
	})
}

// NewInfinispanService returns the data grid service of the managed cluster
func NewInfinispanService(manager *clustermanager.Manager, user string) *InfinispanService {
	return &InfinispanService{manager: manager, user: user}
}

// Name returns the service name
func (service *InfinispanService) Name() string {
	return "infinispan"
}

// Description returns the service description
func (service *InfinispanService) Description() string {
	return "Infinispan " + InfinispanVersion + " in-memory data grid"
}

// URL returns the project URL
func (service *InfinispanService) URL() string {
	return "http://infinispan.org"
}

// Operations lists the lifecycle operations
func (service *InfinispanService) Operations() []string {
	return []string{"install", "start", "stop"}
}

// Plan returns the dispatcher operations for operation
func (service *InfinispanService) Plan(operation string) ([]clustermanager.Operation, error) {
	switch operation {
	case "install":
		return []clustermanager.Operation{{
			Name:       "install infinispan",
			Discipline: clustermanager.Parallel,
			Run:        service.install,
		}}, nil
	case "start", "stop":
		return []clustermanager.Operation{{
			Name:       operation + " infinispan",
			Discipline: clustermanager.Parallel,
			Run: func(node clustermanager.Node) error {
				_, err := service.manager.Communicator().Run(node,
					fmt.Sprintf("service %s %s", infinispanInitName, operation),
					clustermanager.RunOptions{Sudo: true, Pty: true})
				return err
			},
		}}, nil
	}
	return nil, unknownOperation(service, operation)
}

func (service *InfinispanService) install(node clustermanager.Node) error {
	comm := service.manager.Communicator()
	events := service.manager.EventService()

	if err := clustermanager.RunCommands(comm, events, node, jdkCommands()); err != nil {
		return err
	}

	err := fetchAndExtract(service.manager, node, InfinispanPackageURL, infinispanArchive, infinispanDir,
		clustermanager.NodeCommand{Command: fmt.Sprintf("echo %s > %s", quote(InfinispanPackageURL), infinispanInfo)})
	if err != nil {
		return err
	}

	events.AddEvent(node.Name, "write infinispan config")
	config, err := RenderInfinispanConfig(node.PrivateIPAddress, service.manager.Cluster().PrivateIPs())
	if err != nil {
		return err
	}
	if err := comm.WriteFile(node, InfinispanConfigPath, config, clustermanager.AllRead); err != nil {
		return err
	}

	return service.installInitScript(node)
}

func (service *InfinispanService) installInitScript(node clustermanager.Node) error {
	comm := service.manager.Communicator()

	script, err := RenderInfinispanInitScript(service.user)
	if err != nil {
		return err
	}
	staged := path.Join(infinispanDir, infinispanInitName+".sh")
	if err := comm.WriteFile(node, staged, script, clustermanager.AllExecute); err != nil {
		return err
	}

	sudo := clustermanager.RunOptions{Sudo: true}
	return clustermanager.RunCommands(comm, service.manager.EventService(), node, []clustermanager.NodeCommand{
		{EventName: "install init script", Command: fmt.Sprintf("cp %s %s", path.Join(homeDir(service.user), staged), infinispanInitPath), Options: sudo},
		{Command: "chmod 755 " + infinispanInitPath, Options: sudo},
		{Command: "chown root:root " + infinispanInitPath, Options: sudo},
		{Command: fmt.Sprintf("update-rc.d %s defaults", infinispanInitName), Options: sudo},
		{Command: fmt.Sprintf("update-rc.d %s enable", infinispanInitName), Options: sudo},
	})
}
