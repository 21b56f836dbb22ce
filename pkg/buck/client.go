package buck

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// Builder answers whether a set of targets builds. A false verdict is an
// expected outcome, not an error.
type Builder interface {
	Build(ctx context.Context, targets []string, noCache bool) bool
}

// Querier returns the dependency closure of a target as modules.
// A depth of zero or less queries the full closure.
type Querier interface {
	QueryModules(ctx context.Context, target string, depth int) (map[string]*model.Module, error)
}

// Oracle is the build tool as seen by the minimizers
type Oracle interface {
	Builder
	Querier
}

// Client runs build and query commands through an Executor
type Client struct {
	executor Executor
	root     string
}

// NewClient creates a client running commands in the workspace root
func NewClient(executor Executor, root string) *Client {
	return &Client{executor: executor, root: root}
}

// Build runs a build of targets. It succeeds only if the tool exits cleanly
// and prints nothing on standard output.
func (c *Client) Build(ctx context.Context, targets []string, noCache bool) bool {
	logger := logging.New("buck.build")

	args := []string{"build"}
	if noCache {
		args = append(args, "--no-cache")
	}
	args = append(args, targets...)

	logger.DebugContext(ctx, "Building", "targets", strings.Join(targets, " "), "noCache", noCache)
	output, err := c.executor.Run(ctx, c.root, args...)
	if err != nil {
		logger.Log(ctx, logging.LevelTrace, "Build failed", "error", err)
		return false
	}
	if len(bytes.TrimSpace(output)) > 0 {
		logger.Log(ctx, logging.LevelTrace, "Build produced output", "output", string(output))
		return false
	}
	return true
}

// QueryDependencies returns the raw JSON dependency query output for target.
func (c *Client) QueryDependencies(ctx context.Context, target string, depth int) ([]byte, error) {
	expr := fmt.Sprintf("deps('%s')", target)
	if depth > 0 {
		expr = fmt.Sprintf("deps('%s', %d)", target, depth)
	}

	args := []string{"query", expr, "--output-format", "json", "--output-attributes"}
	args = append(args, QueryAttributes...)

	output, err := c.executor.Run(ctx, c.root, args...)
	if err != nil {
		return nil, fmt.Errorf("dependency query for %s: %w", target, err)
	}
	return output, nil
}

// QueryModules queries and parses the dependency closure of target.
func (c *Client) QueryModules(ctx context.Context, target string, depth int) (map[string]*model.Module, error) {
	logger := logging.New("buck.query")

	output, err := c.QueryDependencies(ctx, target, depth)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "Query complete", "target", target, "bytes", len(output))

	modules, err := ParseQueryOutput(output)
	if err != nil {
		return nil, fmt.Errorf("query for %s: %w", target, err)
	}
	return modules, nil
}
