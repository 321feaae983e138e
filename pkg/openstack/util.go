package openstack

import (
	"regexp"
	"sort"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/secgroups"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
)

func regexpQuote(name string) string {
	return regexp.QuoteMeta(name)
}

func uniqueID(kind string, name string, ids []string) (string, error) {
	switch len(ids) {
	case 0:
		return "", &clustermanager.MissingReferenceError{Kind: kind, Name: name}
	case 1:
		return ids[0], nil
	default:
		return "", &clustermanager.AmbiguousIdentityError{Kind: kind, Name: name, IDs: ids}
	}
}

func toSecurityGroup(group secgroups.SecurityGroup) clustermanager.SecurityGroup {
	result := clustermanager.SecurityGroup{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
	}
	for _, rule := range group.Rules {
		result.Rules = append(result.Rules, clustermanager.SecurityGroupRule{
			Protocol:   rule.IPProtocol,
			Port:       rule.FromPort,
			CIDR:       rule.IPRange.CIDR,
			SelfSource: rule.Group.Name == group.Name,
		})
	}
	return result
}

func toServer(server servers.Server) clustermanager.Server {
	return clustermanager.Server{
		ID:         server.ID,
		Name:       server.Name,
		Status:     server.Status,
		Metadata:   server.Metadata,
		PrivateIPs: privateIPs(server.Addresses),
		Created:    server.Created,
	}
}

// privateIPs extracts the fixed addresses of every network, sorted by
// network name so the first one is stable between calls
func privateIPs(addresses map[string]interface{}) []string {
	networks := make([]string, 0, len(addresses))
	for network := range addresses {
		networks = append(networks, network)
	}
	sort.Strings(networks)

	var ips []string
	for _, network := range networks {
		entries, ok := addresses[network].([]interface{})
		if !ok {
			continue
		}
		for _, entry := range entries {
			address, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if kind, present := address["OS-EXT-IPS:type"]; present && kind != "fixed" {
				continue
			}
			if ip, ok := address["addr"].(string); ok && ip != "" {
				ips = append(ips, ip)
			}
		}
	}
	return ips
}
