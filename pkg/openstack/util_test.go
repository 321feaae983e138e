package openstack

import (
	"testing"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/magiconair/properties/assert"
)

func TestPrivateIPs(t *testing.T) {
	addresses := map[string]interface{}{
		"zz-net": []interface{}{
			map[string]interface{}{"addr": "10.1.0.4", "OS-EXT-IPS:type": "fixed"},
		},
		"private": []interface{}{
			map[string]interface{}{"addr": "10.0.0.5", "OS-EXT-IPS:type": "fixed"},
			map[string]interface{}{"addr": "185.1.1.1", "OS-EXT-IPS:type": "floating"},
		},
		"broken": "not a list",
	}

	assert.Equal(t, privateIPs(addresses), []string{"10.0.0.5", "10.1.0.4"})
	assert.Equal(t, len(privateIPs(nil)), 0)
}

func TestToServer(t *testing.T) {
	server := toServer(servers.Server{
		ID:       "abc",
		Name:     "demo-node-0",
		Status:   "ACTIVE",
		Metadata: map[string]string{clustermanager.ClusterNameMetadataKey: "demo"},
		Addresses: map[string]interface{}{
			"private": []interface{}{map[string]interface{}{"addr": "10.0.0.5"}},
		},
	})

	assert.Equal(t, server.PrivateIPs, []string{"10.0.0.5"})
	assert.Equal(t, server.Metadata[clustermanager.ClusterNameMetadataKey], "demo")
}

func TestUniqueID(t *testing.T) {
	id, err := uniqueID("image", "ubuntu", []string{"1"})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, id, "1")

	if _, err := uniqueID("image", "ubuntu", nil); err == nil {
		t.Error("missing image accepted")
	}

	_, err = uniqueID("flavor", "small", []string{"1", "2"})
	if _, ok := err.(*clustermanager.AmbiguousIdentityError); !ok {
		t.Errorf("expected ambiguous identity error, got %v", err)
	}
}
