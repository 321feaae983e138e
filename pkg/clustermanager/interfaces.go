package clustermanager

import "os"

// FilePermission is the mode used for files written on nodes
type FilePermission os.FileMode

const (
	// OwnerRead indicate that the file can be readed only from owner
	OwnerRead FilePermission = 0600
	// AllRead indicate that the file can be readed from all user on system
	AllRead FilePermission = 0644
	// AllExecute indicate that the file can be executed from all user on system
	AllExecute FilePermission = 0755
)

// NodeCommunicator is the interface used to define a node comunication protocol
type NodeCommunicator interface {
	Run(node Node, command string, opts RunOptions) (Result, error)
	RunCmd(node Node, command string) (string, error)
	WriteFile(node Node, filePath string, content string, permission FilePermission) error
	UploadFile(node Node, localPath string, remotePath string) error
}

// EventService is the interface used to manage events
type EventService interface {
	AddEvent(eventName string, eventMessage string)
}

// CloudProvider is the narrow view of the cloud API the reconciler and the
// status reporter rely on
type CloudProvider interface {
	FindSecurityGroups(name string) ([]SecurityGroup, error)
	CreateSecurityGroup(spec SecurityGroupSpec) (SecurityGroup, error)
	FindServers(name string) ([]Server, error)
	CreateServer(spec ServerSpec) (Server, error)
	WaitUntilRunning(servers []Server) ([]Node, error)
	ListServers() ([]Server, error)
}
