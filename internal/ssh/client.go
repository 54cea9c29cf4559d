package ssh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/mgiraud/dockhand/internal/constants"
)

// Client represents an SSH connection to the deployment host.
type Client struct {
	Host    string
	User    string
	Port    int
	KeyPath string
	client  *ssh.Client
}

// NewClient creates a new SSH client.
func NewClient(host, user string, port int, keyPath string) *Client {
	if port == 0 {
		port = 22
	}
	return &Client{
		Host:    host,
		User:    user,
		Port:    port,
		KeyPath: keyPath,
	}
}

// Connect establishes the SSH connection. Failures to dial or authenticate
// are connectivity failures, distinct from any command failure.
func (c *Client) Connect() error {
	client, err := c.dial(constants.ConnectTimeout)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Probe performs a dry connectivity check with a short timeout: dial,
// authenticate, close. No command is executed. Used as the pre-flight gate
// before any remote stage runs.
func (c *Client) Probe(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		client, err := c.dial(constants.ProbeTimeout)
		if err == nil {
			client.Close()
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return &ConnectivityError{Host: c.addr(), Err: ctx.Err()}
	case err := <-done:
		return err
	}
}

func (c *Client) dial(timeout time.Duration) (*ssh.Client, error) {
	signer, err := c.loadPrivateKey()
	if err != nil {
		return nil, &ConnectivityError{Host: c.addr(), Err: err}
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return nil, &ConnectivityError{Host: c.addr(), Err: err}
	}

	config := &ssh.ClientConfig{
		User: c.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", c.addr(), config)
	if err != nil {
		return nil, &ConnectivityError{Host: c.addr(), Err: err}
	}
	return client, nil
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.client != nil
}

// loadPrivateKey loads the SSH private key.
func (c *Client) loadPrivateKey() (ssh.Signer, error) {
	// CI/CD: check for SSH key in environment variable first
	if envKey := os.Getenv("DOCKHAND_SSH_KEY"); envKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(envKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse DOCKHAND_SSH_KEY: %w", err)
		}
		return signer, nil
	}

	keyPath := c.KeyPath
	if keyPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		keyPaths := []string{
			filepath.Join(homeDir, ".ssh", "id_ed25519"),
			filepath.Join(homeDir, ".ssh", "id_rsa"),
		}
		for _, p := range keyPaths {
			if _, err := os.Stat(p); err == nil {
				keyPath = p
				break
			}
		}
		if keyPath == "" {
			return nil, fmt.Errorf("no SSH key found (set DOCKHAND_SSH_KEY for CI/CD)")
		}
	}

	// Expand ~ in path
	if len(keyPath) >= 2 && keyPath[:2] == "~/" {
		homeDir, _ := os.UserHomeDir()
		keyPath = filepath.Join(homeDir, keyPath[2:])
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return signer, nil
}

// hostKeyCallback returns the host key callback function.
// SECURITY: requires a valid known_hosts file by default. In CI/CD, set
// DOCKHAND_KNOWN_HOSTS with the content of known_hosts or
// DOCKHAND_SKIP_HOST_KEY_CHECK=true to skip verification (not recommended).
func (c *Client) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if knownHostsContent := os.Getenv("DOCKHAND_KNOWN_HOSTS"); knownHostsContent != "" {
		tmpFile, err := os.CreateTemp("", "known_hosts")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp known_hosts: %w", err)
		}
		defer os.Remove(tmpFile.Name())

		if _, err := tmpFile.WriteString(knownHostsContent); err != nil {
			return nil, fmt.Errorf("failed to write temp known_hosts: %w", err)
		}
		tmpFile.Close()

		callback, err := knownhosts.New(tmpFile.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to parse DOCKHAND_KNOWN_HOSTS: %w", err)
		}
		return callback, nil
	}

	if os.Getenv("DOCKHAND_SKIP_HOST_KEY_CHECK") == "true" {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("SSH known_hosts file not found at %s. "+
			"Please connect to the server manually first with: ssh %s@%s -p %d\n"+
			"For CI/CD, set DOCKHAND_KNOWN_HOSTS or DOCKHAND_SKIP_HOST_KEY_CHECK=true",
			knownHostsPath, c.User, c.Host, c.Port)
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read known_hosts: %w", err)
	}

	return callback, nil
}

// NewSession creates a new SSH session.
func (c *Client) NewSession() (*ssh.Session, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}
	return c.client.NewSession()
}
