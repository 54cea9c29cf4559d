package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Local executes commands on the local machine through bash, in a fixed
// working directory. It never inherits the ambient process directory: the
// directory is an explicit constructor argument.
type Local struct {
	dir string
}

// NewLocal creates a local runner rooted at dir. An empty dir means the
// process working directory.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Run executes a single command line.
func (l *Local) Run(ctx context.Context, command string) (*Result, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	return l.run(ctx, cmd)
}

// Script executes a multi-line body via `bash -se` on stdin.
func (l *Local) Script(ctx context.Context, body string) (*Result, error) {
	cmd := exec.CommandContext(ctx, "bash", "-se")
	cmd.Stdin = strings.NewReader(body)
	return l.run(ctx, cmd)
}

func (l *Local) run(ctx context.Context, cmd *exec.Cmd) (*Result, error) {
	cmd.Dir = l.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := &Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	if err != nil {
		// Deadline expiry is a command failure, not a transport error. The
		// timeout notice goes after whatever the command wrote before the
		// deadline expired.
		if ctx.Err() != nil {
			result.ExitCode = -1
			msg := "command timed out: " + ctx.Err().Error()
			if result.Stderr != "" {
				msg = strings.TrimRight(result.Stderr, "\n") + "\n" + msg
			}
			result.Stderr = msg
			return result, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}

	return result, nil
}

// Close is a no-op for the local runner.
func (l *Local) Close() error {
	return nil
}
