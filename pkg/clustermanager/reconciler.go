package clustermanager

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ClusterPlan is the desired cloud state of a cluster
type ClusterPlan struct {
	NodePrefix     string
	NodeCount      int
	SecurityGroups []SecurityGroupSpec
	Server         ServerSpec
}

// Reconciler creates the cloud resources of a plan that do not exist yet.
// Lookups are by exact name, so a re-run reuses everything created before.
type Reconciler struct {
	cloud CloudProvider
	log   logrus.FieldLogger
}

// NewReconciler creates a Reconciler on top of a cloud provider
func NewReconciler(cloud CloudProvider, logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{cloud: cloud, log: logger}
}

// NodeName returns the deterministic name of the node at index
func NodeName(prefix string, index int) string {
	return fmt.Sprintf("%s-%d", prefix, index)
}

// CloudInitWithSSHKeys renders a cloud-config document that authorizes keys
func CloudInitWithSSHKeys(keys []string) string {
	content := "#cloud-config\nssh_authorized_keys:"
	for _, key := range keys {
		content += "\n  - " + key
	}
	return content
}

// EnsureSecurityGroups ensures every security group of specs in order
func (reconciler *Reconciler) EnsureSecurityGroups(specs []SecurityGroupSpec) ([]SecurityGroup, error) {
	groups := make([]SecurityGroup, 0, len(specs))
	for _, spec := range specs {
		group, err := reconciler.EnsureSecurityGroup(spec)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// EnsureClusterInstances ensures the instances of the plan, attached to the
// given security groups, and returns the running nodes in index order
func (reconciler *Reconciler) EnsureClusterInstances(plan ClusterPlan, groups []SecurityGroup) ([]Node, error) {
	template := plan.Server
	template.SecurityGroups = make([]string, 0, len(groups))
	for _, group := range groups {
		template.SecurityGroups = append(template.SecurityGroups, group.Name)
	}
	return reconciler.EnsureInstances(plan.NodePrefix, plan.NodeCount, template)
}

// EnsureSecurityGroup returns the group named spec.Name, creating it with
// spec.Rules when absent. An existing group is never modified.
func (reconciler *Reconciler) EnsureSecurityGroup(spec SecurityGroupSpec) (SecurityGroup, error) {
	found, err := reconciler.cloud.FindSecurityGroups(spec.Name)
	if err != nil {
		return SecurityGroup{}, err
	}

	var matches []SecurityGroup
	for _, group := range found {
		if group.Name == spec.Name {
			matches = append(matches, group)
		}
	}

	switch len(matches) {
	case 0:
		reconciler.log.Infof("creating security group '%s'", spec.Name)
		return reconciler.cloud.CreateSecurityGroup(spec)
	case 1:
		reconciler.log.Infof("using existing security group '%s'", spec.Name)
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, group := range matches {
			ids = append(ids, group.ID)
		}
		return SecurityGroup{}, &AmbiguousIdentityError{Kind: "security group", Name: spec.Name, IDs: ids}
	}
}

// EnsureInstances makes sure instances prefix-0 … prefix-(count-1) exist and
// waits once for all of them to run
func (reconciler *Reconciler) EnsureInstances(prefix string, count int, template ServerSpec) ([]Node, error) {
	if count < 1 {
		return nil, fmt.Errorf("node count must be at least 1, %d given", count)
	}

	servers := make([]Server, 0, count)
	for i := 0; i < count; i++ {
		name := NodeName(prefix, i)
		server, err := reconciler.ensureInstance(name, template)
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}

	reconciler.log.Infof("waiting for %d node(s) to run", len(servers))
	running, err := reconciler.cloud.WaitUntilRunning(servers)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Node, len(running))
	for _, node := range running {
		byName[node.Name] = node
	}

	nodes := make([]Node, 0, count)
	for _, server := range servers {
		node, ok := byName[server.Name]
		if !ok {
			return nil, &MissingReferenceError{Kind: "running node", Name: server.Name}
		}
		if node.PrivateIPAddress == "" {
			return nil, fmt.Errorf("node '%s' has no private address", node.Name)
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

func (reconciler *Reconciler) ensureInstance(name string, template ServerSpec) (Server, error) {
	found, err := reconciler.cloud.FindServers(name)
	if err != nil {
		return Server{}, err
	}

	var matches []Server
	for _, server := range found {
		if server.Name == name {
			matches = append(matches, server)
		}
	}

	switch len(matches) {
	case 0:
		spec := template
		spec.Name = name
		reconciler.log.Infof("creating server '%s'...", name)
		return reconciler.cloud.CreateServer(spec)
	case 1:
		reconciler.log.Infof("loading server '%s'...", name)
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, server := range matches {
			ids = append(ids, server.ID)
		}
		return Server{}, &AmbiguousIdentityError{Kind: "server", Name: name, IDs: ids}
	}
}
