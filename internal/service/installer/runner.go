package installer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Command is one subprocess invocation.
type Command struct {
	// Name is the executable, resolved through PATH when it has no separator.
	Name string
	// Args are the arguments passed to the executable.
	Args []string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandRunner starts subprocesses. A nil error means the process exited with status zero.
type CommandRunner interface {
	// Run executes cmd, copying its stdout and stderr to out.
	Run(ctx context.Context, cmd Command, out io.Writer) error
}

// execRunner runs commands with os/exec inside a working directory.
type execRunner struct {
	dir string
}

// NewExecRunner creates a runner that starts processes in dir.
func NewExecRunner(dir string) CommandRunner {
	return &execRunner{dir: dir}
}

// Run implements CommandRunner.
func (r *execRunner) Run(ctx context.Context, cmd Command, out io.Writer) error {
	process := exec.CommandContext(ctx, cmd.Name, cmd.Args...) //nolint:gosec // Arguments come from the operator's own manifest.
	process.Dir = r.dir
	process.Stdout = out
	process.Stderr = out

	if err := process.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}

	return nil
}

// output runs cmd and returns its trimmed combined output.
func output(ctx context.Context, runner CommandRunner, cmd Command) (string, error) {
	var buf bytes.Buffer

	err := runner.Run(ctx, cmd, &buf)

	return strings.TrimSpace(buf.String()), err
}
