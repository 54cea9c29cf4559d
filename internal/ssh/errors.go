package ssh

import (
	"errors"
	"fmt"
)

// ConnectivityError indicates that the remote host could not be reached or
// refused authentication. It is deliberately distinct from a command that
// ran on the host and exited non-zero: the two require different
// remediation and are reported differently.
type ConnectivityError struct {
	Host string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach %s: %v", e.Host, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
