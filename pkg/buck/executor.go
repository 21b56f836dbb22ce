package buck

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor handles the execution of build tool commands
type Executor interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// DefaultExecutor is the default implementation of Executor that runs actual commands
type DefaultExecutor struct {
	Binary string
}

// NewExecutor creates a new executor for the given build tool binary
func NewExecutor(binary string) Executor {
	if binary == "" {
		binary = "buck"
	}
	return &DefaultExecutor{Binary: binary}
}

// Run executes the build tool in dir and returns its standard output.
// Standard error is only reported as part of a failure.
func (e *DefaultExecutor) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return output, fmt.Errorf("%s %s failed: %w\nOutput: %s",
			e.Binary, strings.Join(args, " "), err, stderr.String())
	}

	return output, nil
}
