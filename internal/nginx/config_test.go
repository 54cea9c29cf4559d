package nginx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mgiraud/dockhand/internal/executor"
)

type mockWriter struct {
	contents []string
	paths    []string
	err      error
}

func (m *mockWriter) UploadContentSudo(ctx context.Context, content, remotePath string) error {
	m.contents = append(m.contents, content)
	m.paths = append(m.paths, remotePath)
	return m.err
}

func TestGenerateSite(t *testing.T) {
	site, err := GenerateSite(3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"listen 80;",
		"listen [::]:80;",
		"proxy_pass http://127.0.0.1:3000;",
		"proxy_set_header Host $host;",
		"proxy_set_header X-Real-IP $remote_addr;",
		"proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;",
		"proxy_set_header X-Forwarded-Proto $scheme;",
	} {
		if !strings.Contains(site, want) {
			t.Errorf("rendered site missing %q:\n%s", want, site)
		}
	}
}

func TestConfigure_RemovesStaleRulesBeforeWriting(t *testing.T) {
	mock := &executor.MockRunner{}
	writer := &mockWriter{}
	c := NewConfigurator(mock, writer)

	if err := c.Configure(context.Background(), 3000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All four stale locations go first, then the symlink, check and reload.
	removals := 0
	for _, cmd := range mock.Commands {
		if strings.Contains(cmd, "rm -f") {
			removals++
		} else {
			break
		}
	}
	if removals != 4 {
		t.Errorf("expected 4 leading removals, got %d in: %v", removals, mock.Commands)
	}

	joined := strings.Join(mock.Commands, "\n")
	if !strings.Contains(joined, "sites-enabled/default") {
		t.Errorf("stock default site must be removed: %v", mock.Commands)
	}

	if len(writer.paths) != 1 || writer.paths[0] != "/etc/nginx/sites-available/app" {
		t.Errorf("unexpected write paths: %v", writer.paths)
	}
}

func TestConfigure_SyntaxFailureBlocksReload(t *testing.T) {
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			if strings.Contains(command, "nginx -t") {
				return &executor.Result{ExitCode: 1, Stderr: "nginx: [emerg] unexpected end of file"}, nil
			}
			return &executor.Result{ExitCode: 0}, nil
		},
	}
	c := NewConfigurator(mock, &mockWriter{})

	err := c.Configure(context.Background(), 3000)

	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	if !IsSyntaxFailure(err) {
		t.Error("IsSyntaxFailure must recognize the error")
	}
	if strings.Contains(strings.Join(mock.Commands, "\n"), "reload") {
		t.Errorf("reload must never run after a failed check: %v", mock.Commands)
	}
}

func TestConfigure_ReloadsNotRestarts(t *testing.T) {
	mock := &executor.MockRunner{}
	c := NewConfigurator(mock, &mockWriter{})

	if err := c.Configure(context.Background(), 3000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(mock.Commands, "\n")
	if !strings.Contains(joined, "systemctl reload nginx") {
		t.Errorf("expected a reload: %v", mock.Commands)
	}
	if strings.Contains(joined, "restart") {
		t.Errorf("restart would drop live connections: %v", mock.Commands)
	}
}

func TestRemove_DeletesRuleFilesAndReloads(t *testing.T) {
	mock := &executor.MockRunner{}
	c := NewConfigurator(mock, &mockWriter{})

	if err := c.Remove(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(mock.Commands, "\n")
	for _, want := range []string{
		"sites-enabled/app",
		"sites-available/app",
		"conf.d/app.conf",
		"systemctl reload nginx",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in: %v", want, mock.Commands)
		}
	}
	if strings.Contains(joined, "systemctl stop nginx") {
		t.Errorf("the proxy service must stay active: %v", mock.Commands)
	}
}
