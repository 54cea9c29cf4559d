package executor

import "context"

// MockRunner is a test double that records commands and returns configured
// results.
type MockRunner struct {
	RunFunc    func(ctx context.Context, command string) (*Result, error)
	ScriptFunc func(ctx context.Context, body string) (*Result, error)
	Commands   []string
	Scripts    []string
}

// Run records the command and delegates to RunFunc.
func (m *MockRunner) Run(ctx context.Context, command string) (*Result, error) {
	m.Commands = append(m.Commands, command)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, command)
	}
	return &Result{ExitCode: 0}, nil
}

// Script records the body and delegates to ScriptFunc.
func (m *MockRunner) Script(ctx context.Context, body string) (*Result, error) {
	m.Scripts = append(m.Scripts, body)
	if m.ScriptFunc != nil {
		return m.ScriptFunc(ctx, body)
	}
	return &Result{ExitCode: 0}, nil
}

// Close is a no-op for the mock.
func (m *MockRunner) Close() error {
	return nil
}
