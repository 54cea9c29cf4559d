package deploy

import (
	"context"
	"strings"
	"testing"

	"github.com/mgiraud/dockhand/internal/executor"
)

func TestValidate_Healthy(t *testing.T) {
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			switch {
			case strings.Contains(command, "is-active"):
				return &executor.Result{ExitCode: 0, Stdout: "active\n"}, nil
			case strings.Contains(command, "docker ps"):
				return &executor.Result{ExitCode: 0, Stdout: "app\n"}, nil
			default:
				return &executor.Result{ExitCode: 0, Stdout: "200"}, nil
			}
		},
	}

	warnings, err := NewValidator(mock).Validate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestValidate_InactiveDockerIsFatal(t *testing.T) {
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			if strings.Contains(command, "is-active") {
				return &executor.Result{ExitCode: 3, Stdout: "inactive\n"}, nil
			}
			return &executor.Result{ExitCode: 0, Stdout: "app\n"}, nil
		},
	}

	_, err := NewValidator(mock).Validate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not active") {
		t.Fatalf("expected fatal docker-service error, got: %v", err)
	}
}

func TestValidate_NoContainerIsFatal(t *testing.T) {
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			if strings.Contains(command, "is-active") {
				return &executor.Result{ExitCode: 0, Stdout: "active\n"}, nil
			}
			return &executor.Result{ExitCode: 0, Stdout: ""}, nil
		},
	}

	_, err := NewValidator(mock).Validate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no running container") {
		t.Fatalf("expected missing-container error, got: %v", err)
	}
}

func TestValidate_SubstringNameMatchIsNotEnough(t *testing.T) {
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			switch {
			case strings.Contains(command, "is-active"):
				return &executor.Result{ExitCode: 0, Stdout: "active\n"}, nil
			case strings.Contains(command, "docker ps"):
				return &executor.Result{ExitCode: 0, Stdout: "myapp-db\n"}, nil
			default:
				return &executor.Result{ExitCode: 0, Stdout: "200"}, nil
			}
		},
	}

	_, err := NewValidator(mock).Validate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no running container") {
		t.Fatalf("a container that merely contains the name must not pass, got: %v", err)
	}
}

func TestValidate_ContainerCheckCommandFailure(t *testing.T) {
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			switch {
			case strings.Contains(command, "is-active"):
				return &executor.Result{ExitCode: 0, Stdout: "active\n"}, nil
			case strings.Contains(command, "docker ps"):
				return &executor.Result{ExitCode: 1, Stderr: "permission denied while trying to connect to the Docker daemon socket"}, nil
			default:
				return &executor.Result{ExitCode: 0, Stdout: "200"}, nil
			}
		},
	}

	_, err := NewValidator(mock).Validate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exit 1") {
		t.Fatalf("a failing docker ps must be reported as a command failure, got: %v", err)
	}
	if err != nil && strings.Contains(err.Error(), "no running container") {
		t.Errorf("command failure must not be misreported as a missing container: %v", err)
	}
}

func TestValidate_UnansweredHTTPIsWarning(t *testing.T) {
	mock := &executor.MockRunner{
		RunFunc: func(ctx context.Context, command string) (*executor.Result, error) {
			switch {
			case strings.Contains(command, "is-active"):
				return &executor.Result{ExitCode: 0, Stdout: "active\n"}, nil
			case strings.Contains(command, "docker ps"):
				return &executor.Result{ExitCode: 0, Stdout: "app\n"}, nil
			default:
				return &executor.Result{ExitCode: 7}, nil
			}
		},
	}

	warnings, err := NewValidator(mock).Validate(context.Background())
	if err != nil {
		t.Fatalf("a silent public port must not be fatal: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "80") {
		t.Errorf("expected a single port-80 warning, got: %v", warnings)
	}
}
