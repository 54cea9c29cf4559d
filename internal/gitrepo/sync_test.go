package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgiraud/dockhand/internal/config"
	"github.com/mgiraud/dockhand/internal/executor"
)

func testSpec() config.DeploymentSpec {
	return config.DeploymentSpec{
		RepoURL: "https://example.com/team/my-app.git",
		Token:   "s3cr3t",
		Branch:  "main",
	}
}

func TestSync_InitializesWhenNoWorkingCopy(t *testing.T) {
	baseDir := t.TempDir()
	mock := &executor.MockRunner{}
	syncer := NewSyncer(mock, baseDir)

	localPath, err := syncer.Sync(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if localPath != filepath.Join(baseDir, "my-app") {
		t.Errorf("unexpected local path: %q", localPath)
	}

	if len(mock.Commands) != 4 {
		t.Fatalf("expected init, remote add, fetch and checkout, got: %v", mock.Commands)
	}
	if !strings.Contains(mock.Commands[0], "git init") {
		t.Errorf("first command should init, got: %q", mock.Commands[0])
	}
	if !strings.Contains(mock.Commands[1], "remote add origin") {
		t.Errorf("second command should configure the remote, got: %q", mock.Commands[1])
	}
	if !strings.Contains(mock.Commands[2], "fetch") || !strings.Contains(mock.Commands[2], "main") {
		t.Errorf("third command should fetch the branch, got: %q", mock.Commands[2])
	}
	if !strings.Contains(mock.Commands[3], "checkout -B") || !strings.Contains(mock.Commands[3], "FETCH_HEAD") {
		t.Errorf("fourth command should reset the branch to the fetched head, got: %q", mock.Commands[3])
	}
}

func TestSync_TokenOnlyOnFetchCommandLine(t *testing.T) {
	baseDir := t.TempDir()
	mock := &executor.MockRunner{}
	syncer := NewSyncer(mock, baseDir)

	if _, err := syncer.Sync(context.Background(), testSpec()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The configured remote must stay credential-free: git persists the
	// remote URL in .git/config, so the token may only ever appear on a
	// transient fetch invocation.
	for _, cmd := range mock.Commands {
		if !strings.Contains(cmd, "s3cr3t") {
			continue
		}
		if !strings.Contains(cmd, "fetch") {
			t.Errorf("token on a non-fetch command: %q", cmd)
		}
	}

	remoteAdd := mock.Commands[1]
	if strings.Contains(remoteAdd, "s3cr3t") {
		t.Errorf("configured remote must not carry the token: %q", remoteAdd)
	}
	if !strings.Contains(remoteAdd, "https://example.com/team/my-app.git") {
		t.Errorf("configured remote should be the plain URL: %q", remoteAdd)
	}

	fetch := mock.Commands[2]
	if !strings.Contains(fetch, "s3cr3t@example.com") {
		t.Errorf("fetch must authenticate with the token: %q", fetch)
	}
}

func TestSync_ReusesExistingWorkingCopy(t *testing.T) {
	baseDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(baseDir, "my-app", ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	mock := &executor.MockRunner{}
	syncer := NewSyncer(mock, baseDir)

	if _, err := syncer.Sync(context.Background(), testSpec()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(mock.Commands, "\n")
	if strings.Contains(joined, "git init") || strings.Contains(joined, "remote add") {
		t.Errorf("existing copy must not be re-initialized: %v", mock.Commands)
	}
	if !strings.Contains(joined, "fetch") {
		t.Errorf("expected a fetch, got: %v", mock.Commands)
	}
	if !strings.Contains(joined, "checkout -B") {
		t.Errorf("expected a branch reset, got: %v", mock.Commands)
	}
}

func TestSync_CheckoutFailureIsFatal(t *testing.T) {
	baseDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(baseDir, "my-app", ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			if strings.Contains(command, "checkout") {
				return &executor.Result{ExitCode: 1, Stderr: "error: your local changes would be overwritten"}, nil
			}
			return &executor.Result{ExitCode: 0}, nil
		},
	}

	syncer := NewSyncer(mock, baseDir)
	_, err := syncer.Sync(context.Background(), testSpec())
	if err == nil {
		t.Fatal("expected checkout failure to be fatal")
	}
	if !strings.Contains(err.Error(), "checkout") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSync_UnknownBranchFailsOnFetch(t *testing.T) {
	baseDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(baseDir, "my-app", ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			if strings.Contains(command, "fetch") {
				return &executor.Result{ExitCode: 128, Stderr: "fatal: couldn't find remote ref nope"}, nil
			}
			return &executor.Result{ExitCode: 0}, nil
		},
	}

	syncer := NewSyncer(mock, baseDir)
	spec := testSpec()
	spec.Branch = "nope"
	_, err := syncer.Sync(context.Background(), spec)
	if err == nil || !strings.Contains(err.Error(), `fetch of branch "nope" failed`) {
		t.Fatalf("expected fatal fetch error, got: %v", err)
	}
}

func TestSync_ErrorsNeverLeakToken(t *testing.T) {
	baseDir := t.TempDir()
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			return &executor.Result{
				ExitCode: 128,
				Stderr:   "fatal: unable to access 'https://s3cr3t@example.com/team/my-app.git'",
			}, nil
		},
	}

	syncer := NewSyncer(mock, baseDir)
	_, err := syncer.Sync(context.Background(), testSpec())
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "s3cr3t") {
		t.Errorf("token leaked into error: %v", err)
	}
}
