package clustermanager

import (
	"fmt"

	"github.com/alessio/shellescape"
)

// FileExists reports whether path exists on the node
func FileExists(comm NodeCommunicator, node Node, path string) (bool, error) {
	result, err := comm.Run(node, fmt.Sprintf("test -e %s", shellescape.Quote(path)), RunOptions{WarnOnly: true})
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// AppendLineIfAbsent appends line to the remote file unless an identical line is already present
func AppendLineIfAbsent(comm NodeCommunicator, node Node, path string, line string, sudo bool) error {
	quotedPath := shellescape.Quote(path)
	command := fmt.Sprintf("touch %s && (grep -qxF -- %s %s || echo %s >> %s)",
		quotedPath, shellescape.Quote(line), quotedPath, shellescape.Quote(line), quotedPath)
	_, err := comm.Run(node, command, RunOptions{Sudo: sudo})
	return err
}

// RunCommands runs the commands in order on the node and stops at the first
// failing one, unless that command is flagged WarnOnly
func RunCommands(comm NodeCommunicator, eventService EventService, node Node, commands []NodeCommand) error {
	for _, command := range commands {
		if eventService != nil && command.EventName != "" {
			eventService.AddEvent(node.Name, command.EventName)
		}
		if _, err := comm.Run(node, command.Command, command.Options); err != nil {
			return err
		}
	}
	return nil
}
