package ssh

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewClient_DefaultPort(t *testing.T) {
	c := NewClient("example.com", "deploy", 0, "")
	if c.Port != 22 {
		t.Errorf("expected default port 22, got %d", c.Port)
	}

	c = NewClient("example.com", "deploy", 2222, "")
	if c.Port != 2222 {
		t.Errorf("explicit port must be kept, got %d", c.Port)
	}
}

func TestClient_NotConnected(t *testing.T) {
	c := NewClient("example.com", "deploy", 22, "")

	if c.IsConnected() {
		t.Error("fresh client must not report connected")
	}
	if _, err := c.NewSession(); err == nil {
		t.Error("NewSession on a disconnected client must fail")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on a disconnected client must be a no-op, got: %v", err)
	}
}

func TestConnectivityError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ConnectivityError{Host: "example.com:22", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("ConnectivityError must unwrap to its cause")
	}
	if !IsConnectivity(err) {
		t.Error("IsConnectivity must recognize a bare ConnectivityError")
	}
	if !IsConnectivity(fmt.Errorf("stage failed: %w", err)) {
		t.Error("IsConnectivity must see through wrapping")
	}
	if IsConnectivity(errors.New("exit 1")) {
		t.Error("a command failure is not a connectivity failure")
	}
}
