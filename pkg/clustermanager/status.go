package clustermanager

import (
	"sort"
	"time"
)

// ClusterNameMetadataKey is the instance metadata key carrying the cluster name
const ClusterNameMetadataKey = "leads_cluster_name"

// ClusterNodeStatus is one row of the cross-cluster inventory
type ClusterNodeStatus struct {
	ClusterName string    `json:"cluster"`
	NodeName    string    `json:"node"`
	NodeID      string    `json:"id"`
	Status      string    `json:"status"`
	Created     time.Time `json:"created"`
}

// ListClusterNodes returns every instance visible to the cloud credentials
// that is tagged with a cluster name, whatever the cluster
func ListClusterNodes(cloud CloudProvider) ([]ClusterNodeStatus, error) {
	servers, err := cloud.ListServers()
	if err != nil {
		return nil, err
	}

	var statuses []ClusterNodeStatus
	for _, server := range servers {
		clusterName, ok := server.Metadata[ClusterNameMetadataKey]
		if !ok {
			continue
		}
		statuses = append(statuses, ClusterNodeStatus{
			ClusterName: clusterName,
			NodeName:    server.Name,
			NodeID:      server.ID,
			Status:      server.Status,
			Created:     server.Created,
		})
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].ClusterName != statuses[j].ClusterName {
			return statuses[i].ClusterName < statuses[j].ClusterName
		}
		return statuses[i].NodeName < statuses[j].NodeName
	})

	return statuses, nil
}
