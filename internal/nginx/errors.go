package nginx

import (
	"errors"
	"strings"
)

// SyntaxError indicates the generated configuration failed nginx's own
// syntax check. It is fatal and blocks the reload: the previously active
// configuration stays in effect.
type SyntaxError struct {
	Output string
}

func (e *SyntaxError) Error() string {
	msg := strings.TrimSpace(e.Output)
	if msg == "" {
		return "nginx configuration failed syntax check"
	}
	return "nginx configuration failed syntax check: " + msg
}

// IsSyntaxFailure reports whether err is a config syntax failure.
func IsSyntaxFailure(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
