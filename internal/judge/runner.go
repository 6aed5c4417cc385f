package judge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a wrapper program and returns its stdout. Implementations
// must honor context cancellation and must not run the program inside the
// server process.
type Runner interface {
	Run(ctx context.Context, program string) (string, error)
}

// NodeRunner executes programs in a disposable node subprocess. The
// permission model denies filesystem and network access, the heap is
// capped, and the context deadline kills runaway processes.
type NodeRunner struct {
	path string
}

var nodeArgs = []string{
	"--experimental-permission",
	"--max-old-space-size=128",
}

func NewNodeRunner(path string) *NodeRunner {
	return &NodeRunner{path: path}
}

func (r *NodeRunner) Run(ctx context.Context, program string) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, nodeArgs...)
	cmd.Stdin = strings.NewReader(program)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return "", ctxErr
	}
	if err != nil {
		// The wrapper exits 0 even for failing submissions; non-zero means
		// the runner itself broke.
		return "", fmt.Errorf("node runner: %w: %s", err, firstLine(stderr.String()))
	}
	return stdout.String(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
