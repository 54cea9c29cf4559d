package deploy

import (
	"errors"
	"strings"
)

// BuildError indicates the image build itself failed, as opposed to the
// infrastructure around it. Kept distinct so operators can triage build
// problems separately from host problems.
type BuildError struct {
	Output string
}

func (e *BuildError) Error() string {
	msg := strings.TrimSpace(e.Output)
	if msg == "" {
		return "image build failed"
	}
	return "image build failed: " + msg
}

// IsBuildFailure reports whether err is an image build failure.
func IsBuildFailure(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
