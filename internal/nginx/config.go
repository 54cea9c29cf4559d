package nginx

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/mgiraud/dockhand/internal/constants"
	"github.com/mgiraud/dockhand/internal/executor"
	"github.com/mgiraud/dockhand/internal/security"
)

// siteTemplate maps the public port to the application's internal port on
// loopback, forwarding the standard proxy headers upstream.
const siteTemplate = `# {{ .AppName }} - managed by dockhand
server {
    listen {{ .PublicPort }};
    listen [::]:{{ .PublicPort }};
    server_name _;

    location / {
        proxy_pass http://127.0.0.1:{{ .AppPort }};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`

type siteParams struct {
	AppName    string
	PublicPort int
	AppPort    int
}

// GenerateSite renders the nginx rule for the application.
func GenerateSite(appPort int) (string, error) {
	t, err := template.New("site").Parse(siteTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	err = t.Execute(&buf, siteParams{
		AppName:    constants.AppName,
		PublicPort: constants.PublicPort,
		AppPort:    appPort,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render site config: %w", err)
	}
	return buf.String(), nil
}

// ContentWriter writes content to a root-owned remote path.
type ContentWriter interface {
	UploadContentSudo(ctx context.Context, content, remotePath string) error
}

// Configurator (re)writes and activates the reverse-proxy rule for the
// application. Idempotent by removal-then-recreate: stale rules can never
// coexist with fresh ones.
type Configurator struct {
	runner executor.Runner
	writer ContentWriter
}

// NewConfigurator creates a Configurator.
func NewConfigurator(runner executor.Runner, writer ContentWriter) *Configurator {
	return &Configurator{runner: runner, writer: writer}
}

// ruleFiles lists every location nginx may load a rule for the application
// from, plus the stock default site, which also binds the public port.
func ruleFiles() []string {
	return []string{
		constants.NginxEnabledPath(),
		constants.NginxSitePath(),
		constants.NginxConfDPath(),
		constants.NginxSitesEnabled + "/default",
	}
}

// Configure writes the rule, validates it with nginx's own syntax checker
// and reloads. A syntax failure is fatal and the reload never runs, so a
// broken config can never take down the live proxy.
func (c *Configurator) Configure(ctx context.Context, appPort int) error {
	if err := c.removeRules(ctx); err != nil {
		return err
	}

	site, err := GenerateSite(appPort)
	if err != nil {
		return err
	}

	if err := c.writer.UploadContentSudo(ctx, site, constants.NginxSitePath()); err != nil {
		return fmt.Errorf("failed to write site config: %w", err)
	}

	linkCmd := fmt.Sprintf("sudo ln -sfn %s %s",
		security.ShellEscape(constants.NginxSitePath()),
		security.ShellEscape(constants.NginxEnabledPath()))
	if err := c.run(ctx, linkCmd); err != nil {
		return fmt.Errorf("failed to enable site: %w", err)
	}

	result, err := c.runner.Run(ctx, "sudo nginx -t")
	if err != nil {
		return fmt.Errorf("config check: %w", err)
	}
	if result.ExitCode != 0 {
		return &SyntaxError{Output: result.Stderr}
	}

	// Reload, not restart: unrelated traffic keeps flowing.
	if err := c.run(ctx, "sudo systemctl reload nginx"); err != nil {
		return fmt.Errorf("failed to reload nginx: %w", err)
	}
	return nil
}

// Remove deletes the application's rule files and reloads. The proxy
// service itself stays active.
func (c *Configurator) Remove(ctx context.Context) error {
	paths := []string{
		constants.NginxEnabledPath(),
		constants.NginxSitePath(),
		constants.NginxConfDPath(),
	}
	for _, p := range paths {
		if err := c.run(ctx, fmt.Sprintf("sudo rm -f %s", security.ShellEscape(p))); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	if err := c.run(ctx, "sudo systemctl reload nginx"); err != nil {
		return fmt.Errorf("failed to reload nginx: %w", err)
	}
	return nil
}

func (c *Configurator) removeRules(ctx context.Context) error {
	for _, p := range ruleFiles() {
		if err := c.run(ctx, fmt.Sprintf("sudo rm -f %s", security.ShellEscape(p))); err != nil {
			return fmt.Errorf("failed to remove stale rule %s: %w", p, err)
		}
	}
	return nil
}

func (c *Configurator) run(ctx context.Context, command string) error {
	result, err := c.runner.Run(ctx, command)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("exit %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}
