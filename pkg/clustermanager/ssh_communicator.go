package clustermanager

import (
	"bytes"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alessio/shellescape"
	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/terminal"
)

const dialRetries = 10

// SSHKey represents a keypair with the paths to the keys
type SSHKey struct {
	Name           string `json:"name"`
	PrivateKeyPath string `json:"private_key_path"`
	PublicKeyPath  string `json:"public_key_path"`
}

// SSHCommunicator implements NodeCommunicator as a SSH client. Nodes are
// reached on their private address through the cluster's SSH gateway.
type SSHCommunicator struct {
	sshKey      SSHKey
	user        string
	gateway     string
	gatewayUser string
	passPhrase  []byte
	log         logrus.FieldLogger

	agentLock sync.Mutex
	agentConn net.Conn
	agent     agent.ExtendedAgent
}

var _ NodeCommunicator = &SSHCommunicator{}

// NewSSHCommunicator creates an instance of SSHCommunicator. An empty gateway
// makes it dial the node addresses directly.
func NewSSHCommunicator(sshKey SSHKey, user string, gateway string, gatewayUser string, logger logrus.FieldLogger) *SSHCommunicator {
	return &SSHCommunicator{
		sshKey:      sshKey,
		user:        user,
		gateway:     gateway,
		gatewayUser: gatewayUser,
		log:         logger,
	}
}

// Run runs a shell command on the given node. A non-zero exit status is
// returned as *RemoteCommandError unless opts.WarnOnly is set.
func (sshComm *SSHCommunicator) Run(node Node, command string, opts RunOptions) (Result, error) {
	result := Result{}
	client, closeAll, err := sshComm.connect(node)
	if err != nil {
		return result, err
	}
	defer closeAll()

	session, err := client.NewSession()
	if err != nil {
		return result, fmt.Errorf("session failed:%v", err)
	}
	defer session.Close()

	if opts.Pty {
		modes := ssh.TerminalModes{ssh.ECHO: 0}
		if err := session.RequestPty("xterm", 40, 80, modes); err != nil {
			return result, fmt.Errorf("request for pseudo terminal failed: %v", err)
		}
	}

	wrapped := wrapCommand(command, opts)
	var output bytes.Buffer
	session.Stdout = &output
	session.Stderr = &output
	err = session.Run(wrapped)
	result.Stdout = output.String()

	logger := sshComm.log.WithField("node", node.Name)
	logger.WithField("command", wrapped).Debug("command")
	logger.Debug(result.Stdout)

	if err != nil {
		exitErr, ok := err.(*ssh.ExitError)
		if !ok {
			return result, fmt.Errorf("run failed\ncommand:%s\nerr:%v", command, err)
		}
		result.ExitCode = exitErr.ExitStatus()
		if opts.WarnOnly {
			logger.Warnf("command exited with %d, ignoring: %s", result.ExitCode, command)
			return result, nil
		}
		return result, &RemoteCommandError{Node: node.Name, Command: command, ExitCode: result.ExitCode, Output: result.Stdout}
	}

	return result, nil
}

// RunCmd runs a bash command on the given node as the login user
func (sshComm *SSHCommunicator) RunCmd(node Node, command string) (string, error) {
	result, err := sshComm.Run(node, command, RunOptions{})
	return result.Stdout, err
}

// WriteFile places a file at a given path from string, replacing any previous content
func (sshComm *SSHCommunicator) WriteFile(node Node, filePath string, content string, permission FilePermission) error {
	return sshComm.withSFTP(node, func(client *sftp.Client) error {
		if dir := path.Dir(filePath); dir != "." {
			if err := client.MkdirAll(dir); err != nil {
				return fmt.Errorf("%s: mkdir %s failed: %v", node.Name, dir, err)
			}
		}
		// remove first so a shorter body never leaves a stale tail
		client.Remove(filePath)
		f, err := client.Create(filePath)
		if err != nil {
			return fmt.Errorf("%s: unable to create file: %v", node.Name, err)
		}
		defer f.Close()
		if _, err := f.Write([]byte(content)); err != nil {
			return fmt.Errorf("%s: write failed: %v", node.Name, err)
		}
		return f.Chmod(os.FileMode(permission))
	})
}

// UploadFile copies a local file to the node
func (sshComm *SSHCommunicator) UploadFile(node Node, localPath string, remotePath string) error {
	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer local.Close()
	info, err := local.Stat()
	if err != nil {
		return err
	}

	return sshComm.withSFTP(node, func(client *sftp.Client) error {
		remote, err := client.Create(remotePath)
		if err != nil {
			return fmt.Errorf("%s: unable to create file: %v", node.Name, err)
		}
		defer remote.Close()
		if _, err := io.Copy(remote, local); err != nil {
			return fmt.Errorf("%s: upload failed: %v", node.Name, err)
		}
		return remote.Chmod(info.Mode().Perm())
	})
}

func (sshComm *SSHCommunicator) withSFTP(node Node, fn func(*sftp.Client) error) error {
	client, closeAll, err := sshComm.connect(node)
	if err != nil {
		return err
	}
	defer closeAll()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("%s: sftp failed: %v", node.Name, err)
	}
	defer sftpClient.Close()

	return fn(sftpClient)
}

// wrapCommand turns a command and its options into the string sent to the
// remote shell
func wrapCommand(command string, opts RunOptions) string {
	if len(opts.Env) > 0 {
		keys := make([]string, 0, len(opts.Env))
		for key := range opts.Env {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var exports []string
		for _, key := range keys {
			exports = append(exports, fmt.Sprintf("export %s=%s;", key, shellescape.Quote(opts.Env[key])))
		}
		command = strings.Join(exports, " ") + " " + command
	}

	if opts.Sudo {
		return "sudo -S -p '' /bin/bash -l -c " + shellescape.Quote(command)
	}
	return "/bin/bash -l -c " + shellescape.Quote(command)
}

func (sshComm *SSHCommunicator) clientConfig(user string) (*ssh.ClientConfig, error) {
	methods := []ssh.AuthMethod{}
	if sshComm.sshKey.PrivateKeyPath != "" {
		signer, err := sshComm.getPrivateSSHKey()
		if err != nil {
			return nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if sshAgent := sshComm.sshAgent(); sshAgent != nil {
		methods = append(methods, ssh.PublicKeysCallback(sshAgent.Signers))
	}
	if len(methods) == 0 {
		return nil, errors.New("no SSH private key or agent available")
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}, nil
}

// sshAgent returns the client of the running ssh-agent, if any. The agent
// socket is dialed once and shared until Close.
func (sshComm *SSHCommunicator) sshAgent() agent.ExtendedAgent {
	sshComm.agentLock.Lock()
	defer sshComm.agentLock.Unlock()

	if sshComm.agent != nil {
		return sshComm.agent
	}
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		sshComm.log.Debugf("ssh-agent not reachable: %v", err)
		return nil
	}
	sshComm.agentConn = conn
	sshComm.agent = agent.NewClient(conn)
	return sshComm.agent
}

// Close releases the ssh-agent connection
func (sshComm *SSHCommunicator) Close() error {
	sshComm.agentLock.Lock()
	defer sshComm.agentLock.Unlock()

	if sshComm.agentConn == nil {
		return nil
	}
	err := sshComm.agentConn.Close()
	sshComm.agentConn = nil
	sshComm.agent = nil
	return err
}

// connect opens a client to the node, hopping through the gateway when one
// is configured. The returned func closes every connection involved.
func (sshComm *SSHCommunicator) connect(node Node) (*ssh.Client, func(), error) {
	config, err := sshComm.clientConfig(sshComm.user)
	if err != nil {
		return nil, nil, err
	}
	target := net.JoinHostPort(node.PrivateIPAddress, "22")

	if sshComm.gateway == "" {
		client, err := sshComm.dial(node, func() (*ssh.Client, error) {
			return ssh.Dial("tcp", target, config)
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	}

	gatewayConfig, err := sshComm.clientConfig(sshComm.gatewayUser)
	if err != nil {
		return nil, nil, err
	}
	gateway, err := sshComm.dial(node, func() (*ssh.Client, error) {
		return ssh.Dial("tcp", net.JoinHostPort(sshComm.gateway, "22"), gatewayConfig)
	})
	if err != nil {
		return nil, nil, err
	}

	conn, err := gateway.Dial("tcp", target)
	if err != nil {
		gateway.Close()
		return nil, nil, fmt.Errorf("%s: tunnel through %s failed: %v", node.Name, sshComm.gateway, err)
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, target, config)
	if err != nil {
		gateway.Close()
		return nil, nil, fmt.Errorf("%s: handshake failed: %v", node.Name, err)
	}

	client := ssh.NewClient(clientConn, chans, reqs)
	return client, func() {
		client.Close()
		gateway.Close()
	}, nil
}

func (sshComm *SSHCommunicator) dial(node Node, dialer func() (*ssh.Client, error)) (*ssh.Client, error) {
	for try := 0; ; try++ {
		connection, err := dialer()
		if err == nil {
			return connection, nil
		}
		sshComm.log.WithField("node", node.Name).Debugf("dial failed: %v, retrying..", err)
		if try > dialRetries {
			return nil, err
		}
		time.Sleep(1 * time.Second)
	}
}

// CapturePassphrase asks the user to enter the private key passphrase if the key is encrypted
func (sshComm *SSHCommunicator) CapturePassphrase() error {
	if sshComm.sshKey.PrivateKeyPath == "" {
		return nil
	}

	encrypted, err := sshComm.isEncrypted()
	if err != nil {
		return err
	}

	if !encrypted {
		return nil
	}

	fmt.Print("Enter passphrase for SSH key " + sshComm.sshKey.PrivateKeyPath + ": ")
	text, err := terminal.ReadPassword(int(syscall.Stdin))

	if err != nil {
		return err
	}

	fmt.Print("\n")
	sshComm.passPhrase = text

	// check that the captured password is correct
	_, err = sshComm.getPrivateSSHKey()
	if err != nil {
		sshComm.passPhrase = nil
	}

	return err
}

func (sshComm *SSHCommunicator) isEncrypted() (bool, error) {
	pemBytes, err := ioutil.ReadFile(sshComm.sshKey.PrivateKeyPath)
	if err != nil {
		return false, err
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return false, errors.New("SSH: no key found")
	}

	if strings.Contains(block.Headers["Proc-Type"], "ENCRYPTED") {
		return true, nil
	}

	_, err = ssh.ParsePrivateKey(pemBytes)
	_, missing := err.(*ssh.PassphraseMissingError)
	return missing, nil
}

func (sshComm *SSHCommunicator) getPrivateSSHKey() (ssh.Signer, error) {
	pemBytes, err := ioutil.ReadFile(sshComm.sshKey.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	if sshComm.passPhrase != nil {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(pemBytes, sshComm.passPhrase)
		if err != nil {
			return nil, fmt.Errorf("parse key failed:%v", err)
		}
		return signer, nil
	}

	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse key failed:%v", err)
	}

	return signer, nil
}
