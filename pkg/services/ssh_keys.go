package services

import (
	"github.com/leads-project/leads-cluster/pkg/clustermanager"
	"github.com/sirupsen/logrus"
)

// AuthorizedKeysPath is the authorized keys file of the SSH user, relative to its home
const AuthorizedKeysPath = ".ssh/authorized_keys"

// SSHKeysService distributes the additional public keys to every node
type SSHKeysService struct {
	manager *clustermanager.Manager
	keys    []string
	log     logrus.FieldLogger
}

func init() {
	addService("ssh-keys", func(registry *ServiceRegistry) ClusterService {
		return NewSSHKeysService(registry.manager, registry.spec.AdditionalSSHKeys, registry.log)
	})
}

// NewSSHKeysService returns the key deployment service
func NewSSHKeysService(manager *clustermanager.Manager, keys []string, logger logrus.FieldLogger) *SSHKeysService {
	return &SSHKeysService{manager: manager, keys: keys, log: logger}
}

// Name returns the service name
func (service *SSHKeysService) Name() string {
	return "ssh-keys"
}

// Description returns the service description
func (service *SSHKeysService) Description() string {
	return "additional SSH public keys of the operators"
}

// URL returns an empty string, the keys are local configuration
func (service *SSHKeysService) URL() string {
	return ""
}

// Operations lists the lifecycle operations
func (service *SSHKeysService) Operations() []string {
	return []string{"deploy"}
}

// Plan returns the dispatcher operations for operation
func (service *SSHKeysService) Plan(operation string) ([]clustermanager.Operation, error) {
	if operation != "deploy" {
		return nil, unknownOperation(service, operation)
	}
	if len(service.keys) == 0 {
		service.log.Warn("no additional SSH keys configured, nothing to deploy")
		return nil, nil
	}

	return []clustermanager.Operation{{
		Name:       "deploy ssh keys",
		Discipline: clustermanager.Parallel,
		Run: func(node clustermanager.Node) error {
			comm := service.manager.Communicator()
			for _, key := range service.keys {
				if err := clustermanager.AppendLineIfAbsent(comm, node, AuthorizedKeysPath, key, false); err != nil {
					return err
				}
			}
			return nil
		},
	}}, nil
}
