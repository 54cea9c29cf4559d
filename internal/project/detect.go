package project

import (
	"os"
	"path/filepath"
)

// Kind classifies the synchronized working copy and drives the deployment
// strategy.
type Kind int

const (
	// Unrecognized means neither descriptor is present. Terminal failure
	// for project verification; the deployer is never reached.
	Unrecognized Kind = iota
	// SingleImage means a Dockerfile is present: build one image, run one
	// container.
	SingleImage
	// Composition means a compose file is present: bring the multi-service
	// definition up in detached mode.
	Composition
)

func (k Kind) String() string {
	switch k {
	case SingleImage:
		return "single-image"
	case Composition:
		return "composition"
	default:
		return "unrecognized"
	}
}

// composeFiles are the descriptor names the compose plugin loads by default.
var composeFiles = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// Detect inspects a working copy and returns its Kind. A compose descriptor
// wins over a plain Dockerfile: compose builds from the Dockerfile itself
// when services reference one.
func Detect(dir string) Kind {
	for _, name := range composeFiles {
		if fileExists(filepath.Join(dir, name)) {
			return Composition
		}
	}
	if fileExists(filepath.Join(dir, "Dockerfile")) {
		return SingleImage
	}
	return Unrecognized
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
