package config

import (
	"strings"
	"testing"
)

func TestSpec_DefaultSSHPort(t *testing.T) {
	cfg := &Config{
		Repository: RepositoryConfig{URL: "https://example.com/app.git", Branch: "main"},
		Server:     ServerConfig{Host: "example.com", User: "deploy"},
		App:        AppConfig{Port: 3000},
	}

	spec := cfg.Spec()
	if spec.SSHPort != 22 {
		t.Errorf("expected default SSH port 22, got %d", spec.SSHPort)
	}
}

func TestDeploymentSpec_RepoName(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{"git suffix stripped", "https://example.com/team/my-app.git", "my-app", false},
		{"no suffix", "https://example.com/my-app", "my-app", false},
		{"uppercase lowered", "https://example.com/MyApp.git", "myapp", false},
		{"no path", "https://example.com/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DeploymentSpec{RepoURL: tt.url}
			name, err := spec.RepoName()
			if (err != nil) != tt.wantErr {
				t.Fatalf("RepoName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.expected {
				t.Errorf("RepoName() = %q, want %q", name, tt.expected)
			}
		})
	}
}

func TestDeploymentSpec_FetchURL(t *testing.T) {
	spec := DeploymentSpec{
		RepoURL: "https://example.com/team/app.git",
		Token:   "s3cr3t",
	}

	u, err := spec.FetchURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(u, "s3cr3t@example.com") {
		t.Errorf("expected token embedded in userinfo, got %q", u)
	}
}

func TestDeploymentSpec_FetchURL_NoToken(t *testing.T) {
	spec := DeploymentSpec{RepoURL: "https://example.com/app.git"}

	u, err := spec.FetchURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "https://example.com/app.git" {
		t.Errorf("URL without token must be unchanged, got %q", u)
	}
}
