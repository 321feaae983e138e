// Package openstack implements clustermanager.CloudProvider on top of the
// OpenStack compute API.
package openstack

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gophercloud/gophercloud"
	gopenstack "github.com/gophercloud/gophercloud/openstack"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/secgroups"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/images"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/leads-project/leads-cluster/pkg/config"
	"github.com/sirupsen/logrus"
)

const (
	statusActive = "ACTIVE"
	statusError  = "ERROR"
)

// Provider talks to the compute service of one tenant
type Provider struct {
	client      *gophercloud.ServiceClient
	context     context.Context
	waitTimeout time.Duration
	pollEvery   time.Duration
	log         logrus.FieldLogger
}

var _ clustermanager.CloudProvider = &Provider{}

// NewProvider authenticates against the identity service and returns a Provider
func NewProvider(ctx context.Context, spec config.ClusterSpec, logger logrus.FieldLogger) (*Provider, error) {
	providerClient, err := gopenstack.NewClient(spec.AuthURL)
	if err != nil {
		return nil, err
	}
	if spec.Insecure {
		providerClient.HTTPClient = http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		}
	}
	providerClient.Context = ctx

	err = gopenstack.Authenticate(providerClient, gophercloud.AuthOptions{
		IdentityEndpoint: spec.AuthURL,
		Username:         spec.Username,
		Password:         spec.Password,
		TenantName:       spec.TenantName,
	})
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %v", err)
	}

	compute, err := gopenstack.NewComputeV2(providerClient, gophercloud.EndpointOpts{Region: spec.Region})
	if err != nil {
		return nil, err
	}

	return &Provider{
		client:      compute,
		context:     ctx,
		waitTimeout: spec.WaitTimeout,
		pollEvery:   2 * time.Second,
		log:         logger,
	}, nil
}

// FindSecurityGroups lists the groups named name
func (provider *Provider) FindSecurityGroups(name string) ([]clustermanager.SecurityGroup, error) {
	pages, err := secgroups.List(provider.client).AllPages()
	if err != nil {
		return nil, err
	}
	all, err := secgroups.ExtractSecurityGroups(pages)
	if err != nil {
		return nil, err
	}

	var groups []clustermanager.SecurityGroup
	for _, group := range all {
		if group.Name == name {
			groups = append(groups, toSecurityGroup(group))
		}
	}
	return groups, nil
}

// CreateSecurityGroup creates the group and its rules
func (provider *Provider) CreateSecurityGroup(spec clustermanager.SecurityGroupSpec) (clustermanager.SecurityGroup, error) {
	group, err := secgroups.Create(provider.client, secgroups.CreateOpts{
		Name:        spec.Name,
		Description: spec.Description,
	}).Extract()
	if err != nil {
		return clustermanager.SecurityGroup{}, err
	}

	for _, rule := range spec.Rules {
		opts := secgroups.CreateRuleOpts{
			ParentGroupID: group.ID,
			FromPort:      rule.Port,
			ToPort:        rule.Port,
			IPProtocol:    rule.Protocol,
		}
		if rule.SelfSource {
			opts.FromGroupID = group.ID
		} else {
			opts.CIDR = rule.CIDR
		}
		if _, err := secgroups.CreateRule(provider.client, opts).Extract(); err != nil {
			return clustermanager.SecurityGroup{}, fmt.Errorf("rule %s/%d on '%s': %v", rule.Protocol, rule.Port, spec.Name, err)
		}
	}

	result := toSecurityGroup(*group)
	result.Rules = spec.Rules
	return result, nil
}

// FindServers lists the servers named name
func (provider *Provider) FindServers(name string) ([]clustermanager.Server, error) {
	// the name filter is a regular expression on the server side
	all, err := provider.listServers(servers.ListOpts{Name: "^" + regexpQuote(name) + "$"})
	if err != nil {
		return nil, err
	}

	var found []clustermanager.Server
	for _, server := range all {
		if server.Name == name {
			found = append(found, server)
		}
	}
	return found, nil
}

// ListServers lists every server of the tenant
func (provider *Provider) ListServers() ([]clustermanager.Server, error) {
	return provider.listServers(servers.ListOpts{})
}

// CreateServer boots an instance after resolving image, flavor and key pair by name
func (provider *Provider) CreateServer(spec clustermanager.ServerSpec) (clustermanager.Server, error) {
	imageID, err := provider.findImage(spec.Image)
	if err != nil {
		return clustermanager.Server{}, err
	}
	flavorID, err := provider.findFlavor(spec.Flavor)
	if err != nil {
		return clustermanager.Server{}, err
	}
	if _, err := keypairs.Get(provider.client, spec.KeyName, nil).Extract(); err != nil {
		return clustermanager.Server{}, fmt.Errorf("key pair '%s': %v", spec.KeyName, err)
	}

	createOpts := servers.CreateOpts{
		Name:           spec.Name,
		ImageRef:       imageID,
		FlavorRef:      flavorID,
		SecurityGroups: spec.SecurityGroups,
		Metadata:       spec.Metadata,
	}
	if spec.UserData != "" {
		createOpts.UserData = []byte(spec.UserData)
	}
	if spec.ConfigDrive {
		configDrive := true
		createOpts.ConfigDrive = &configDrive
	}

	server, err := servers.Create(provider.client, keypairs.CreateOptsExt{
		CreateOptsBuilder: createOpts,
		KeyName:           spec.KeyName,
	}).Extract()
	if err != nil {
		return clustermanager.Server{}, err
	}

	provider.log.Infof("created server '%s' (%s)", spec.Name, server.ID)
	created := toServer(*server)
	created.Name = spec.Name
	return created, nil
}

// WaitUntilRunning polls every pending server on one ticker until all are
// active and have a private address
func (provider *Provider) WaitUntilRunning(pending []clustermanager.Server) ([]clustermanager.Node, error) {
	ctx, cancel := context.WithTimeout(provider.context, provider.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(provider.pollEvery)
	defer ticker.Stop()

	remaining := make(map[string]clustermanager.Server, len(pending))
	for _, server := range pending {
		remaining[server.ID] = server
	}
	var nodes []clustermanager.Node

	for {
		for id, server := range remaining {
			current, err := servers.Get(provider.client, id).Extract()
			if err != nil {
				return nil, fmt.Errorf("server '%s': %v", server.Name, err)
			}
			state := toServer(*current)
			switch {
			case state.Status == statusError:
				return nil, fmt.Errorf("server '%s' went into %s state", state.Name, statusError)
			case state.Status == statusActive && len(state.PrivateIPs) > 0:
				provider.log.Infof("server '%s' is running with private IP %s", state.Name, state.PrivateIPs[0])
				nodes = append(nodes, clustermanager.Node{
					ID:               state.ID,
					Name:             state.Name,
					PrivateIPAddress: state.PrivateIPs[0],
					Status:           state.Status,
				})
				delete(remaining, id)
			}
		}

		if len(remaining) == 0 {
			return nodes, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%d server(s) not running after %s: %v", len(remaining), provider.waitTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (provider *Provider) listServers(opts servers.ListOpts) ([]clustermanager.Server, error) {
	pages, err := servers.List(provider.client, opts).AllPages()
	if err != nil {
		return nil, err
	}
	all, err := servers.ExtractServers(pages)
	if err != nil {
		return nil, err
	}

	result := make([]clustermanager.Server, 0, len(all))
	for _, server := range all {
		result = append(result, toServer(server))
	}
	return result, nil
}

func (provider *Provider) findImage(name string) (string, error) {
	pages, err := images.ListDetail(provider.client, images.ListOpts{Name: name}).AllPages()
	if err != nil {
		return "", err
	}
	all, err := images.ExtractImages(pages)
	if err != nil {
		return "", err
	}

	var ids []string
	for _, image := range all {
		if image.Name == name {
			ids = append(ids, image.ID)
		}
	}
	return uniqueID("image", name, ids)
}

func (provider *Provider) findFlavor(name string) (string, error) {
	pages, err := flavors.ListDetail(provider.client, nil).AllPages()
	if err != nil {
		return "", err
	}
	all, err := flavors.ExtractFlavors(pages)
	if err != nil {
		return "", err
	}

	var ids []string
	for _, flavor := range all {
		if flavor.Name == name {
			ids = append(ids, flavor.ID)
		}
	}
	return uniqueID("flavor", name, ids)
}
