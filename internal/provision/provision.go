package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgiraud/dockhand/internal/constants"
	"github.com/mgiraud/dockhand/internal/executor"
	"github.com/mgiraud/dockhand/internal/security"
)

// Provisioner ensures the host carries the container runtime, the compose
// plugin and the nginx reverse proxy, with the services enabled and the
// deploying user allowed to drive docker. Every operation is safe to
// repeat: package installs converge and enable --now tolerates an already
// running service.
type Provisioner struct {
	runner executor.Runner
	user   string
}

// New creates a Provisioner for the given deploy user.
func New(runner executor.Runner, user string) *Provisioner {
	return &Provisioner{runner: runner, user: user}
}

// Ensure runs the provisioning script on the host. Failure is fatal: no
// later stage can succeed without these services.
func (p *Provisioner) Ensure(ctx context.Context) error {
	if err := security.ValidateUnixUser(p.user); err != nil {
		return fmt.Errorf("invalid deploy user: %w", err)
	}

	script := fmt.Sprintf(`export DEBIAN_FRONTEND=noninteractive
sudo -E apt-get update -qq
sudo -E apt-get install -y -qq docker.io docker-compose-v2 nginx curl
sudo systemctl enable --now docker
sudo systemctl enable --now nginx
sudo usermod -aG docker %s
sudo mkdir -p %s
sudo chown -R %s: %s
`,
		security.ShellEscape(p.user),
		security.ShellEscape(constants.AppsDir),
		security.ShellEscape(p.user),
		security.ShellEscape(constants.BasePath))

	result, err := p.runner.Script(ctx, script)
	if err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}
	if result.ExitCode != 0 {
		msg := strings.TrimSpace(result.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(result.Stdout)
		}
		return fmt.Errorf("provisioning failed (exit %d): %s", result.ExitCode, msg)
	}
	return nil
}
