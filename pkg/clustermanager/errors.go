package clustermanager

import (
	"fmt"
	"strings"
)

// AmbiguousIdentityError is returned when more than one cloud resource
// carries a name that must be unique. It is never recovered from.
type AmbiguousIdentityError struct {
	Kind string
	Name string
	IDs  []string
}

func (e *AmbiguousIdentityError) Error() string {
	return fmt.Sprintf("%d %ss named '%s' found (%s), refusing to pick one", len(e.IDs), e.Kind, e.Name, strings.Join(e.IDs, ", "))
}

// MissingReferenceError is returned when a named node that must exist is absent
type MissingReferenceError struct {
	Kind string
	Name string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

// RemoteCommandError is returned when a remote command exits non-zero
type RemoteCommandError struct {
	Node     string
	Command  string
	ExitCode int
	Output   string
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("run failed on %s\ncommand:%s\nexit:%d\nstdout:%s", e.Node, e.Command, e.ExitCode, e.Output)
}
