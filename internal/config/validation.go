package config

import (
	"fmt"
	"strings"

	"github.com/mgiraud/dockhand/internal/security"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors. A non-empty value is
// the InputInvalid outcome: it is produced before the pipeline starts and
// before any network or filesystem side effect.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ValidateSpec validates a DeploymentSpec. Every field is required.
func ValidateSpec(spec DeploymentSpec) ValidationErrors {
	var errors ValidationErrors

	if spec.RepoURL == "" {
		errors = append(errors, ValidationError{
			Field:   "repository.url",
			Message: "repository URL is required",
		})
	} else if !strings.HasPrefix(spec.RepoURL, "https://") {
		errors = append(errors, ValidationError{
			Field:   "repository.url",
			Message: "repository URL must use https",
		})
	} else if _, err := spec.RepoName(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "repository.url",
			Message: err.Error(),
		})
	}

	if spec.Token == "" {
		errors = append(errors, ValidationError{
			Field:   "repository.token",
			Message: "access token is required (set DOCKHAND_GIT_TOKEN)",
		})
	}

	if spec.Branch == "" {
		errors = append(errors, ValidationError{
			Field:   "repository.branch",
			Message: "branch name is required",
		})
	} else if err := security.ValidateBranchName(spec.Branch); err != nil {
		errors = append(errors, ValidationError{
			Field:   "repository.branch",
			Message: err.Error(),
		})
	}

	if spec.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "server.host",
			Message: "server host is required",
		})
	}

	if spec.User == "" {
		errors = append(errors, ValidationError{
			Field:   "server.user",
			Message: "server user is required",
		})
	} else if err := security.ValidateUnixUser(spec.User); err != nil {
		errors = append(errors, ValidationError{
			Field:   "server.user",
			Message: err.Error(),
		})
	}

	if spec.SSHPort < 1 || spec.SSHPort > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if spec.KeyPath == "" {
		errors = append(errors, ValidationError{
			Field:   "server.key_path",
			Message: "SSH key path is required",
		})
	}

	if spec.AppPort < 1 || spec.AppPort > 65535 {
		errors = append(errors, ValidationError{
			Field:   "app.port",
			Message: "application port must be between 1 and 65535",
		})
	}

	return errors
}
