package executor

import (
	"context"
	"time"
)

// Result holds the outcome of a command execution. A non-zero exit code is
// a failure regardless of output content; it is carried in the Result, not
// as a Go error, so callers can tolerate specific failures (stopping a
// container that does not exist, for example).
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// OK reports whether the command exited successfully.
func (r *Result) OK() bool {
	return r != nil && r.ExitCode == 0
}

// Runner abstracts command execution on a target (local machine or remote
// host) for testability. Run executes a single command line; Script feeds a
// multi-line body to `bash -se` over stdin, so values never need to be
// textually embedded in a shell string.
//
// An error return means the target could not be reached or the execution
// machinery itself broke. A command that ran and exited non-zero is reported
// through the Result with a nil error.
type Runner interface {
	Run(ctx context.Context, command string) (*Result, error)
	Script(ctx context.Context, body string) (*Result, error)
	Close() error
}
