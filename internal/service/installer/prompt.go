package installer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/owl-installer/internal/domain/install"
)

// Prompter asks the operator blocking questions on a line-oriented input.
type Prompter struct {
	in      *bufio.Reader
	console *Console
}

// NewPrompter creates a prompter reading answers from in.
func NewPrompter(in io.Reader, console *Console) *Prompter {
	return &Prompter{
		in:      bufio.NewReader(in),
		console: console,
	}
}

// Confirm asks a yes/no question. Only "y" and "yes" are affirmative;
// a closed input counts as "no".
func (p *Prompter) Confirm(question string) (bool, error) {
	p.console.Prompt(question + " (Y/N): ")

	answer, err := p.readLine()
	if err != nil {
		if errors.Is(err, errNoAnswer) {
			return false, nil
		}

		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ChooseEnv shows the environment menu and repeats the question until the
// operator enters a valid choice.
func (p *Prompter) ChooseEnv() (install.EnvKind, error) {
	p.console.Plain("")
	p.console.Plain("Select environment type to create:")
	p.console.Plain("1. %s (Recommended)", install.EnvVenv)
	p.console.Plain("2. %s (Legacy)", install.EnvDotEnv)

	for {
		p.console.Prompt("Enter 1 or 2: ")

		answer, err := p.readLine()
		if err != nil {
			return "", fmt.Errorf("choose environment: %w", err)
		}

		kind, err := install.ParseEnvChoice(answer)
		if err == nil {
			return kind, nil
		}

		p.console.Warn("Invalid input. Please enter 1 or 2.")
	}
}

// readLine returns the next trimmed line; errNoAnswer once the input is exhausted.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')

	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	case errors.Is(err, io.EOF):
		return "", errNoAnswer
	default:
		return "", fmt.Errorf("read answer: %w", err)
	}

	return strings.TrimSpace(line), nil
}
