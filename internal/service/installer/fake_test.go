package installer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/oshokin/owl-installer/internal/api/http/owl"
	"github.com/oshokin/owl-installer/internal/domain/install"
)

var (
	errExitStatus = errors.New("exit status 1")
	errOffline    = errors.New("connection refused")
)

// fakeRunner records commands and answers them with handle.
type fakeRunner struct {
	mu sync.Mutex
	// commands holds every command in invocation order.
	commands []Command
	// handle returns the output and the exit error of a command.
	handle func(cmd Command) (string, error)
}

// Run implements CommandRunner.
func (f *fakeRunner) Run(_ context.Context, cmd Command, out io.Writer) error {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	if f.handle == nil {
		return nil
	}

	text, err := f.handle(cmd)
	_, _ = io.WriteString(out, text)

	return err
}

// lines renders the recorded commands.
func (f *fakeRunner) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, 0, len(f.commands))
	for _, cmd := range f.commands {
		lines = append(lines, cmd.String())
	}

	return lines
}

// matching returns the recorded commands containing every fragment.
func (f *fakeRunner) matching(fragments ...string) []string {
	var found []string

	for _, line := range f.lines() {
		ok := true

		for _, fragment := range fragments {
			if !strings.Contains(line, fragment) {
				ok = false
				break
			}
		}

		if ok {
			found = append(found, line)
		}
	}

	return found
}

// pythonWorld simulates a base interpreter and the pip of the created environment.
type pythonWorld struct {
	// projectDir is where "-m venv" creates environments.
	projectDir string
	// installed lists the distribution names pip show knows.
	installed []string
	// broken lists specifiers whose install always fails.
	broken []string
	// flaky lists specifiers whose first install fails.
	flaky []string
	// venvErr fails environment creation when set.
	venvErr error

	attempts map[string]int
}

// handle implements the fakeRunner callback.
func (p *pythonWorld) handle(cmd Command) (string, error) {
	args := strings.Join(cmd.Args, " ")

	switch {
	case args == "--version":
		return "Python 3.12.1\n", nil
	case args == "-m pip --version":
		return "pip 24.0 from /usr/lib/python3/site-packages/pip (python 3.12)\n", nil
	case strings.HasPrefix(args, "-m venv "):
		if p.venvErr != nil {
			return "", p.venvErr
		}

		python := EnvPython(filepath.Join(p.projectDir, cmd.Args[2]))
		if err := os.MkdirAll(filepath.Dir(python), 0o755); err != nil {
			return "", err
		}

		return "", os.WriteFile(python, nil, 0o600)
	case strings.HasPrefix(args, "-m pip show "):
		if slices.Contains(p.installed, cmd.Args[3]) {
			return "Name: " + cmd.Args[3] + "\n", nil
		}

		return "WARNING: Package(s) not found\n", errExitStatus
	case strings.HasPrefix(args, "-m pip install "):
		spec := cmd.Args[3]

		if p.attempts == nil {
			p.attempts = make(map[string]int)
		}

		p.attempts[spec]++

		if slices.Contains(p.broken, spec) || (slices.Contains(p.flaky, spec) && p.attempts[spec] == 1) {
			return "ERROR: No matching distribution\n", errExitStatus
		}

		return "Successfully installed " + spec + "\n", nil
	default:
		return "", nil
	}
}

// fakeRemote implements remoteService.
type fakeRemote struct {
	// status is returned from AppStatus.
	status *owl.StatusResponse
	// err is returned from AppStatus.
	err error
	// sent holds every notified registration.
	sent []*owl.Registration
}

// AppStatus implements StatusChecker.
func (f *fakeRemote) AppStatus(context.Context) (*owl.StatusResponse, error) {
	return f.status, f.err
}

// Notify records the payload.
func (f *fakeRemote) Notify(_ context.Context, payload *owl.Registration) {
	f.sent = append(f.sent, payload)
}

// fixedLocation implements locator.
type fixedLocation string

// Locate returns the fixed location.
func (f fixedLocation) Locate(context.Context) string {
	return string(f)
}

// fakePackages implements PackageManager with in-memory state.
type fakePackages struct {
	// present lists names reported as installed.
	present []string
	// failures counts remaining failed installs per specifier; negative fails forever.
	failures map[install.Specifier]int
	// calls records operations as "show x", "install x", "uninstall x".
	calls []string
}

// IsInstalled implements PackageManager.
func (f *fakePackages) IsInstalled(_ context.Context, name string) bool {
	f.calls = append(f.calls, "show "+name)
	return slices.Contains(f.present, name)
}

// Install implements PackageManager.
func (f *fakePackages) Install(_ context.Context, spec install.Specifier) error {
	f.calls = append(f.calls, "install "+spec.String())

	remaining := f.failures[spec]
	if remaining == 0 {
		return nil
	}

	if remaining > 0 {
		f.failures[spec] = remaining - 1
	}

	return errExitStatus
}

// Uninstall implements PackageManager.
func (f *fakePackages) Uninstall(_ context.Context, name string) error {
	f.calls = append(f.calls, "uninstall "+name)
	return nil
}

// boolPtr returns a pointer to v.
func boolPtr(v bool) *bool {
	return &v
}
