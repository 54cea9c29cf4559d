package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected Kind
	}{
		{"dockerfile only", []string{"Dockerfile"}, SingleImage},
		{"compose yml", []string{"docker-compose.yml"}, Composition},
		{"compose yaml", []string{"docker-compose.yaml"}, Composition},
		{"short compose", []string{"compose.yaml"}, Composition},
		{"compose wins over dockerfile", []string{"Dockerfile", "docker-compose.yml"}, Composition},
		{"neither descriptor", []string{"README.md"}, Unrecognized},
		{"empty directory", nil, Unrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, dir, f)
			}
			if got := Detect(dir); got != tt.expected {
				t.Errorf("Detect() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDetect_DirectoryNamedDockerfileIgnored(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "Dockerfile"), 0755); err != nil {
		t.Fatal(err)
	}
	if got := Detect(dir); got != Unrecognized {
		t.Errorf("a directory named Dockerfile must not count, got %v", got)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{SingleImage, "single-image"},
		{Composition, "composition"},
		{Unrecognized, "unrecognized"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}
