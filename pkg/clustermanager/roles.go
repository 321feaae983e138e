package clustermanager

import (
	"fmt"
	"sort"
)

// Role is a named set of nodes an operation can be restricted to
type Role string

const (
	// RoleMasters holds the single coordinating node
	RoleMasters Role = "masters"
	// RoleSlaves holds the worker nodes
	RoleSlaves Role = "slaves"
)

// RoleAssignment maps roles to node names. Role sets are disjoint and only
// reference nodes of the topology it was built from.
type RoleAssignment struct {
	master string
	slaves []string
	roles  map[Role]map[string]bool
}

// NewRoleAssignment builds the assignment from the ordered hostnames of the
// topology and the configured master and slave indices
func NewRoleAssignment(hostnames []string, masterIndex int, slaveIndices []int) (RoleAssignment, error) {
	assignment := RoleAssignment{
		roles: map[Role]map[string]bool{
			RoleMasters: {},
			RoleSlaves:  {},
		},
	}

	if masterIndex < 0 || masterIndex >= len(hostnames) {
		return assignment, &MissingReferenceError{Kind: "master node", Name: fmt.Sprintf("index %d", masterIndex)}
	}
	assignment.master = hostnames[masterIndex]
	assignment.roles[RoleMasters][assignment.master] = true

	for _, index := range slaveIndices {
		if index < 0 || index >= len(hostnames) {
			return assignment, &MissingReferenceError{Kind: "slave node", Name: fmt.Sprintf("index %d", index)}
		}
		name := hostnames[index]
		if assignment.roles[RoleMasters][name] {
			return assignment, fmt.Errorf("node '%s' cannot be master and slave at the same time", name)
		}
		if assignment.roles[RoleSlaves][name] {
			continue
		}
		assignment.roles[RoleSlaves][name] = true
		assignment.slaves = append(assignment.slaves, name)
	}

	return assignment, nil
}

// HasRole reports whether host belongs to role
func (assignment RoleAssignment) HasRole(host string, role Role) bool {
	return assignment.roles[role][host]
}

// HasAnyRole reports whether host belongs to at least one of roles
func (assignment RoleAssignment) HasAnyRole(host string, roles []Role) bool {
	for _, role := range roles {
		if assignment.HasRole(host, role) {
			return true
		}
	}
	return false
}

// Master returns the name of the master node
func (assignment RoleAssignment) Master() string {
	return assignment.master
}

// Slaves returns the slave names in configuration order
func (assignment RoleAssignment) Slaves() []string {
	return append([]string(nil), assignment.slaves...)
}

// Members returns the sorted node names of a role
func (assignment RoleAssignment) Members(role Role) []string {
	var members []string
	for name := range assignment.roles[role] {
		members = append(members, name)
	}
	sort.Strings(members)
	return members
}
