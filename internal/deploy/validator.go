package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgiraud/dockhand/internal/constants"
	"github.com/mgiraud/dockhand/internal/executor"
)

// Validator confirms the runtime, the container and the HTTP endpoint are
// healthy on the host after a deployment.
type Validator struct {
	runner  executor.Runner
	appName string
}

// NewValidator creates a Validator for the fixed application identity.
func NewValidator(runner executor.Runner) *Validator {
	return &Validator{runner: runner, appName: constants.AppName}
}

// Validate runs the post-deploy checks. An inactive runtime or a missing
// container is fatal; a public port that does not answer yet is only a
// warning since propagation delay is expected.
func (v *Validator) Validate(ctx context.Context) ([]string, error) {
	result, err := v.runner.Run(ctx, "systemctl is-active docker")
	if err != nil {
		return nil, fmt.Errorf("docker service check: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("docker service is not active: %s", strings.TrimSpace(result.Stdout))
	}

	// The name filter is a substring match, so anchor it and compare the
	// listed names exactly: a container merely containing the name must
	// not satisfy the check.
	psCmd := fmt.Sprintf("docker ps --filter 'name=^%s$' --filter status=running --format '{{.Names}}'", v.appName)
	result, err = v.runner.Run(ctx, psCmd)
	if err != nil {
		return nil, fmt.Errorf("container check: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("container check failed (exit %d): %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	if !listsContainer(result.Stdout, v.appName) {
		return nil, fmt.Errorf("no running container named %q found", v.appName)
	}

	httpCmd := fmt.Sprintf("curl -s -o /dev/null -w '%%{http_code}' --max-time %d http://localhost:%d/",
		int(constants.SmokeTimeout.Seconds()), constants.PublicPort)
	result, err = v.runner.Run(ctx, httpCmd)
	if err != nil || result.ExitCode != 0 {
		return []string{fmt.Sprintf("public port %d is not answering yet", constants.PublicPort)}, nil
	}

	return nil, nil
}

func listsContainer(output, name string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == name {
			return true
		}
	}
	return false
}
