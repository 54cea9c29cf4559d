package ssh

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/mgiraud/dockhand/internal/executor"
)

// Run executes a single command on the remote host. A non-zero exit code is
// reported through the Result; an error return means the session itself
// failed. Context expiry closes the session and is reported as a command
// failure.
func (c *Client) Run(ctx context.Context, command string) (*executor.Result, error) {
	return c.exec(ctx, command, "")
}

// Script executes a multi-line script body by feeding it to `bash -se` over
// stdin. Values are parameterized by the caller before rendering the body;
// nothing is wrapped in heredocs.
func (c *Client) Script(ctx context.Context, body string) (*executor.Result, error) {
	return c.exec(ctx, "bash -se", body)
}

func (c *Client) exec(ctx context.Context, command, stdin string) (*executor.Result, error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != "" {
		session.Stdin = strings.NewReader(stdin)
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		session.Close()
		<-done
		return &executor.Result{
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   appendTimeout(stderr.String(), ctx.Err()),
			Elapsed:  time.Since(start),
		}, nil
	case err = <-done:
	}

	result := &executor.Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return result, fmt.Errorf("failed to execute command: %w", err)
	}

	return result, nil
}

// appendTimeout adds the timeout notice after whatever the command wrote
// before the deadline expired.
func appendTimeout(stderr string, err error) string {
	msg := "command timed out: " + err.Error()
	if stderr == "" {
		return msg
	}
	return strings.TrimRight(stderr, "\n") + "\n" + msg
}
