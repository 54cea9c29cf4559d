package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the working
// directory when --config is not given.
const DefaultFileName = "dockhand.yaml"

// Load reads and parses a dockhand.yaml file, then applies environment
// overrides. It does not validate; validation happens once on the assembled
// DeploymentSpec.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %s not found (run 'dockhand init' to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv layers environment variables over the file. The token in
// particular should come from the environment rather than the file.
func applyEnv(cfg *Config) {
	if token := os.Getenv("DOCKHAND_GIT_TOKEN"); token != "" {
		cfg.Repository.Token = token
	}
}

const skeleton = `# dockhand configuration
#
# The access token is read from the DOCKHAND_GIT_TOKEN environment variable
# or prompted for interactively. Do not store it in this file.

repository:
  url: https://example.com/your/app.git
  branch: main

server:
  host: your-server.example.com
  user: deploy
  port: 22
  key_path: ~/.ssh/id_ed25519

app:
  port: 3000
`

// WriteSkeleton writes a commented starter configuration. It refuses to
// overwrite an existing file.
func WriteSkeleton(path string) error {
	if path == "" {
		path = DefaultFileName
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists", path)
		}
		return fmt.Errorf("failed to create config: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(skeleton); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
