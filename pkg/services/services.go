// Package services operates the distributed services installed on a
// provisioned cluster.
package services

import (
	"fmt"
	"sort"

	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/leads-project/leads-cluster/pkg/config"
	"github.com/sirupsen/logrus"
)

// ClusterService is a service whose lifecycle is driven across the cluster
type ClusterService interface {
	Name() string
	Description() string
	URL() string
	Operations() []string
	// Plan returns the dispatcher operations to run, in order, for the named
	// lifecycle operation
	Plan(operation string) ([]clustermanager.Operation, error)
}

type serviceProvider func(registry *ServiceRegistry) ClusterService

var serviceProviders = map[string]serviceProvider{}

func addService(name string, provider serviceProvider) {
	serviceProviders[name] = provider
}

// ServiceRegistry builds services bound to one cluster
type ServiceRegistry struct {
	manager *clustermanager.Manager
	spec    config.ClusterSpec
	cloud   clustermanager.CloudProvider
	log     logrus.FieldLogger
}

// NewServiceRegistry returns a registry for the managed cluster. cloud may be
// nil when no operation needs to look up live cloud state.
func NewServiceRegistry(manager *clustermanager.Manager, spec config.ClusterSpec, cloud clustermanager.CloudProvider, logger logrus.FieldLogger) *ServiceRegistry {
	return &ServiceRegistry{manager: manager, spec: spec, cloud: cloud, log: logger}
}

// ServiceNames lists the registered services
func ServiceNames() []string {
	var names []string
	for name := range serviceProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServiceExists reports whether a service with this name is registered
func (registry *ServiceRegistry) ServiceExists(name string) bool {
	_, ok := serviceProviders[name]
	return ok
}

// GetService returns the named service or nil
func (registry *ServiceRegistry) GetService(name string) ClusterService {
	provider, ok := serviceProviders[name]
	if !ok {
		return nil
	}
	return provider(registry)
}

// Run plans and dispatches a lifecycle operation of a service. The planned
// operations run one after another; the first failing one stops the run.
func (registry *ServiceRegistry) Run(serviceName string, operation string) error {
	service := registry.GetService(serviceName)
	if service == nil {
		return fmt.Errorf("unknown service '%s'", serviceName)
	}

	ops, err := service.Plan(operation)
	if err != nil {
		return err
	}

	for _, op := range ops {
		if err := registry.manager.Dispatch(op); err != nil {
			return fmt.Errorf("%s %s: %v", serviceName, operation, err)
		}
	}

	registry.log.Infof("%s %s finished", serviceName, operation)
	return nil
}

func unknownOperation(service ClusterService, operation string) error {
	return fmt.Errorf("service '%s' has no operation '%s', expected one of %v", service.Name(), operation, service.Operations())
}

func jdkCommands() []clustermanager.NodeCommand {
	return []clustermanager.NodeCommand{
		{EventName: "update packages", Command: "apt-get update", Options: clustermanager.RunOptions{Sudo: true}},
		{EventName: "install jdk", Command: "apt-get install -yyf " + JDKPackage, Options: clustermanager.RunOptions{Sudo: true}},
	}
}

// fetchAndExtract downloads archive unless present and extracts it unless dir exists
func fetchAndExtract(manager *clustermanager.Manager, node clustermanager.Node, url string, archive string, dir string, afterDownload ...clustermanager.NodeCommand) error {
	comm := manager.Communicator()
	events := manager.EventService()

	exists, err := clustermanager.FileExists(comm, node, archive)
	if err != nil {
		return err
	}
	if !exists {
		commands := append([]clustermanager.NodeCommand{
			{EventName: "download " + archive, Command: fmt.Sprintf("wget %s -O %s", quote(url), quote(archive))},
		}, afterDownload...)
		if err := clustermanager.RunCommands(comm, events, node, commands); err != nil {
			return err
		}
	}

	exists, err = clustermanager.FileExists(comm, node, dir)
	if err != nil {
		return err
	}
	if !exists {
		return clustermanager.RunCommands(comm, events, node, []clustermanager.NodeCommand{
			{EventName: "extract " + archive, Command: "tar zxvf " + quote(archive)},
		})
	}
	return nil
}
