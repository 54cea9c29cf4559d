package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgiraud/dockhand/internal/constants"
	"github.com/mgiraud/dockhand/internal/executor"
	"github.com/mgiraud/dockhand/internal/project"
	"github.com/mgiraud/dockhand/internal/security"
)

// Uploader transfers a local directory tree to the host.
type Uploader interface {
	UploadDirectory(ctx context.Context, localDir, remoteDir string) error
}

// Deployer transfers the working copy to the host and brings the
// application up as a container or compose project. The application
// identity is fixed: whichever repository is deployed, the container, the
// image tag and the compose project all use constants.AppName, so at most
// one instance ever runs on a host.
type Deployer struct {
	runner   executor.Runner
	uploader Uploader
	appName  string
	port     int
}

// NewDeployer creates a Deployer binding the application's internal port.
func NewDeployer(runner executor.Runner, uploader Uploader, port int) *Deployer {
	return &Deployer{
		runner:   runner,
		uploader: uploader,
		appName:  constants.AppName,
		port:     port,
	}
}

// Deploy runs the deployment algorithm: recreate the deployment directory,
// transfer the tree, tear down any previous instance, then start the new
// one according to kind. The returned warnings are non-fatal observations
// (the post-start smoke check in particular).
func (d *Deployer) Deploy(ctx context.Context, kind project.Kind, localPath, repoName string) ([]string, error) {
	if kind == project.Unrecognized {
		return nil, fmt.Errorf("unrecognized project: no Dockerfile or compose file")
	}
	if err := security.ValidateAppName(repoName); err != nil {
		return nil, fmt.Errorf("invalid repository name: %w", err)
	}

	deployPath := constants.AppDeployPath(repoName)

	// Destructive recreate: a transfer must never merge with leftovers
	// from a previous (possibly interrupted) run.
	if err := d.recreateDir(ctx, deployPath); err != nil {
		return nil, err
	}

	if err := d.uploader.UploadDirectory(ctx, localPath, deployPath); err != nil {
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	d.teardown(ctx)

	switch kind {
	case project.SingleImage:
		if err := d.buildAndRun(ctx, deployPath); err != nil {
			return nil, err
		}
	case project.Composition:
		if err := d.composeUp(ctx, deployPath); err != nil {
			return nil, err
		}
	}

	return d.smokeCheck(ctx), nil
}

func (d *Deployer) recreateDir(ctx context.Context, deployPath string) error {
	cmd := fmt.Sprintf("rm -rf %s && mkdir -p %s",
		security.ShellEscape(deployPath), security.ShellEscape(deployPath))
	result, err := d.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to prepare deployment directory: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to prepare deployment directory: %s", strings.TrimSpace(result.Stderr))
	}
	return nil
}

// teardown removes any previous instance under the application identity.
// "Did not exist" counts as success; this is the idempotency mechanism for
// re-deploys, so the results are deliberately ignored.
func (d *Deployer) teardown(ctx context.Context) {
	_, _ = d.runner.Run(ctx, fmt.Sprintf("docker rm -f %s 2>/dev/null || true", d.appName))
	_, _ = d.runner.Run(ctx, fmt.Sprintf("docker compose -p %s down --remove-orphans 2>/dev/null || true", d.appName))
}

func (d *Deployer) buildAndRun(ctx context.Context, deployPath string) error {
	buildCmd := fmt.Sprintf("cd %s && docker build -t %s .",
		security.ShellEscape(deployPath), d.appName)
	result, err := d.runner.Run(ctx, buildCmd)
	if err != nil {
		return fmt.Errorf("docker build: %w", err)
	}
	if result.ExitCode != 0 {
		return &BuildError{Output: result.Stderr}
	}

	runCmd := fmt.Sprintf("docker run -d --name %s --restart unless-stopped -p %d:%d %s",
		d.appName, d.port, d.port, d.appName)
	result, err = d.runner.Run(ctx, runCmd)
	if err != nil {
		return fmt.Errorf("docker run: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("docker run failed: %s", strings.TrimSpace(result.Stderr))
	}
	return nil
}

func (d *Deployer) composeUp(ctx context.Context, deployPath string) error {
	cmd := fmt.Sprintf("cd %s && docker compose -p %s up -d --build",
		security.ShellEscape(deployPath), d.appName)
	result, err := d.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("docker compose up: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("docker compose up failed: %s", strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Destroy is the cleanup path: tear down the running instance and remove
// the deployment directory. Absent resources are tolerated, so cleanup on a
// clean host succeeds.
func (d *Deployer) Destroy(ctx context.Context, repoName string) error {
	if err := security.ValidateAppName(repoName); err != nil {
		return fmt.Errorf("invalid repository name: %w", err)
	}

	d.teardown(ctx)

	deployPath := constants.AppDeployPath(repoName)
	result, err := d.runner.Run(ctx, fmt.Sprintf("rm -rf %s", security.ShellEscape(deployPath)))
	if err != nil {
		return fmt.Errorf("failed to remove deployment directory: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to remove deployment directory: %s", strings.TrimSpace(result.Stderr))
	}
	return nil
}

// smokeCheck fetches response headers from the application's own port. The
// container may still be starting, so a failure is a warning, never fatal.
func (d *Deployer) smokeCheck(ctx context.Context) []string {
	cmd := fmt.Sprintf("curl -sI --max-time %d http://localhost:%d",
		int(constants.SmokeTimeout.Seconds()), d.port)
	result, err := d.runner.Run(ctx, cmd)
	if err != nil || result.ExitCode != 0 {
		return []string{fmt.Sprintf("application did not answer on port %d yet; it may still be starting", d.port)}
	}
	return nil
}
