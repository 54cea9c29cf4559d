package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Config represents the dockhand.yaml configuration file.
type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Server     ServerConfig     `yaml:"server"`
	App        AppConfig        `yaml:"app"`
}

// RepositoryConfig holds the source repository settings.
type RepositoryConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
	// Token is never written back to disk; prefer the DOCKHAND_GIT_TOKEN
	// environment variable or the interactive prompt.
	Token string `yaml:"token,omitempty"`
}

// ServerConfig holds the deployment host settings.
type ServerConfig struct {
	Host    string `yaml:"host"`
	User    string `yaml:"user"`
	Port    int    `yaml:"port,omitempty"`
	KeyPath string `yaml:"key_path,omitempty"`
}

// AppConfig holds the application settings.
type AppConfig struct {
	Port int `yaml:"port"`
}

// DeploymentSpec is the immutable input bundle for one pipeline run. It is
// validated once before the pipeline starts and never re-validated
// mid-pipeline. The credential lives only in memory for the run's duration.
type DeploymentSpec struct {
	RepoURL string
	Token   string
	Branch  string
	User    string
	Host    string
	SSHPort int
	KeyPath string
	AppPort int
}

// Spec assembles the DeploymentSpec from the loaded configuration.
func (c *Config) Spec() DeploymentSpec {
	port := c.Server.Port
	if port == 0 {
		port = 22
	}
	return DeploymentSpec{
		RepoURL: c.Repository.URL,
		Token:   c.Repository.Token,
		Branch:  c.Repository.Branch,
		User:    c.Server.User,
		Host:    c.Server.Host,
		SSHPort: port,
		KeyPath: c.Server.KeyPath,
		AppPort: c.App.Port,
	}
}

// RepoName derives the repository name from the URL: the last path element
// with any .git suffix stripped, lowercased.
func (s DeploymentSpec) RepoName() (string, error) {
	u, err := url.Parse(s.RepoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}
	name := strings.TrimSuffix(path.Base(u.Path), ".git")
	name = strings.ToLower(name)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive repository name from URL")
	}
	return name, nil
}

// FetchURL returns the repository URL with the access token embedded in the
// userinfo section. The result is transient: it is passed to individual git
// fetch invocations and must never be persisted or logged. The remote
// configured in the working copy stays credential-free.
func (s DeploymentSpec) FetchURL() (string, error) {
	u, err := url.Parse(s.RepoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}
	if s.Token != "" {
		u.User = url.User(s.Token)
	}
	return u.String(), nil
}
