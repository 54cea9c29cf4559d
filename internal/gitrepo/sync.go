package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgiraud/dockhand/internal/config"
	"github.com/mgiraud/dockhand/internal/executor"
	"github.com/mgiraud/dockhand/internal/security"
)

// Syncer brings a local working copy of the target repository to the
// requested branch. Initializing and re-syncing converge to the same end
// state, so running Sync twice in a row is a no-op beyond a fetch.
type Syncer struct {
	runner  executor.Runner
	baseDir string
}

// NewSyncer creates a Syncer that works under baseDir. An empty baseDir
// means the process working directory.
func NewSyncer(runner executor.Runner, baseDir string) *Syncer {
	return &Syncer{runner: runner, baseDir: baseDir}
}

// Sync initializes the working copy if none exists, fetches the requested
// branch and checks it out. The credential exists only on the transient
// fetch command line: the configured remote is credential-free, so nothing
// under .git ever holds the token. git output is scrubbed before it can
// reach an error message.
func (s *Syncer) Sync(ctx context.Context, spec config.DeploymentSpec) (string, error) {
	name, err := spec.RepoName()
	if err != nil {
		return "", err
	}
	if err := security.ValidateAppName(name); err != nil {
		return "", fmt.Errorf("invalid repository name: %w", err)
	}

	localPath := filepath.Join(s.baseDir, name)

	if !isWorkingCopy(localPath) {
		if err := s.git(ctx, spec, "git init -q %s", localPath); err != nil {
			return "", fmt.Errorf("init failed: %w", err)
		}
		if err := s.git(ctx, spec, "git -C %s remote add origin %s", localPath, spec.RepoURL); err != nil {
			return "", fmt.Errorf("remote setup failed: %w", err)
		}
	}

	fetchURL, err := spec.FetchURL()
	if err != nil {
		return "", err
	}

	// Fetch from the explicit URL rather than the configured remote so the
	// token never enters .git/config. An unknown branch fails here.
	fetch := fmt.Sprintf("git -C %s fetch %s %s",
		security.ShellEscape(localPath), security.ShellEscape(fetchURL), security.ShellEscape(spec.Branch))
	if err := s.run(ctx, spec, fetch); err != nil {
		return "", fmt.Errorf("fetch of branch %q failed: %w", spec.Branch, err)
	}

	// The working copy is a cache owned by this tool: reset the branch to
	// what was just fetched. A dirty-state conflict is fatal for the run.
	if err := s.git(ctx, spec, "git -C %s checkout -B %s FETCH_HEAD", localPath, spec.Branch); err != nil {
		return "", fmt.Errorf("checkout of branch %q failed: %w", spec.Branch, err)
	}

	return localPath, nil
}

func (s *Syncer) git(ctx context.Context, spec config.DeploymentSpec, format string, args ...string) error {
	escaped := make([]interface{}, len(args))
	for i, a := range args {
		escaped[i] = security.ShellEscape(a)
	}
	return s.run(ctx, spec, fmt.Sprintf(format, escaped...))
}

func (s *Syncer) run(ctx context.Context, spec config.DeploymentSpec, command string) error {
	result, err := s.runner.Run(ctx, command)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		msg := strings.TrimSpace(result.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(result.Stdout)
		}
		return fmt.Errorf("exit %d: %s", result.ExitCode, security.ScrubSecret(msg, spec.Token))
	}
	return nil
}

// isWorkingCopy reports whether path contains a git working copy.
func isWorkingCopy(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}
