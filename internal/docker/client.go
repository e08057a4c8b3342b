package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"
)

// defaultPingTimeout is the maximum duration to wait for a Docker daemon
// response during a Ping operation. Docker Desktop on macOS can be
// noticeably slower than native Linux Docker.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. It handles automatic Docker
// socket detection across platforms (Linux, macOS, Windows).
//
// Usage:
//
//	c, err := docker.NewClient()
//	if err != nil { /* handle */ }
//	defer c.Close()
//	version, err := c.Ping(ctx)
type Client struct {
	// inner is the Engine SDK client. It is nil only for a zero Client.
	inner *client.Client

	// host is the daemon address in URI form (unix://, npipe:// or
	// whatever DOCKER_HOST holds), kept for error messages and doctor
	// output.
	host string
}

// NewClient creates a new Docker client with automatic socket detection.
//
// The detection strategy follows this priority order:
//  1. DOCKER_HOST environment variable (if set, used as-is)
//  2. Platform-specific default socket paths:
//     - Linux: /var/run/docker.sock
//     - macOS: /var/run/docker.sock, then ~/.docker/run/docker.sock
//     - Windows: npipe:////./pipe/docker_engine
func NewClient() (*Client, error) {
	// Step 1: An explicit DOCKER_HOST always wins, even when it points
	// at a remote daemon.
	if dockerHost := os.Getenv("DOCKER_HOST"); dockerHost != "" {
		return newClientWithHost(dockerHost)
	}

	// Step 2: Fall back to the platform's well-known socket locations.
	host, err := detectDockerHost()
	if err != nil {
		return nil, err
	}

	// Step 3: Connect. No request is made yet; see Ping.
	return newClientWithHost(host)
}

// newClientWithHost creates a Docker client connected to the specified host.
func newClientWithHost(host string) (*Client, error) {
	// WithAPIVersionNegotiation avoids hardcoding an API version, so the
	// client works against older and newer daemons alike.
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client for host %q: %w", host, err)
	}

	return &Client{inner: c, host: host}, nil
}

// detectDockerHost determines the Docker socket path for the current platform.
// It checks known socket paths and returns the first one that exists.
//
// Existence checks are fast and do not require a running daemon; Ping
// handles connectivity.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
		})

	case "darwin":
		// Newer Docker Desktop versions may only create the per-user socket.
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return detectUnixSocket([]string{
				"/var/run/docker.sock",
			})
		}
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
			homeDir + "/.docker/run/docker.sock",
		})

	case "windows":
		// os.Stat does not work on named pipes, so try a brief dial.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err == nil {
			conn.Close()
			return "npipe://" + pipePath, nil
		}
		return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket checks a list of Unix socket paths and returns the
// Docker host URI for the first socket that exists on the filesystem.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf(
		"Docker socket not found at any of: %v; is Docker running?",
		paths,
	)
}

// Ping verifies that the Docker daemon is reachable and responsive and
// returns the API version it reports. It waits up to defaultPingTimeout.
func (c *Client) Ping(ctx context.Context) (string, error) {
	// Step 1: Bound the call. A caller deadline shorter than
	// defaultPingTimeout still applies.
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	// Step 2: Hit the daemon's /_ping endpoint.
	ping, err := c.inner.Ping(pingCtx)
	if err != nil {
		return "", fmt.Errorf("Docker daemon at %s is not responding: %w", c.host, err)
	}

	// Step 3: Report the negotiated API version.
	return ping.APIVersion, nil
}

// Host returns the daemon address the client connects to.
func (c *Client) Host() string {
	return c.host
}

// Close releases all resources held by the Docker client.
// Close is safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
