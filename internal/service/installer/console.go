package installer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Console prints the wizard's operator-facing messages with ANSI styling.
// Colors are dropped automatically when out is not a terminal.
type Console struct {
	out io.Writer

	banner  lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	note    lipgloss.Style
}

// NewConsole creates a console writing to out.
func NewConsole(out io.Writer) *Console {
	renderer := lipgloss.NewRenderer(out)

	return &Console{
		out:     out,
		banner:  renderer.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		info:    renderer.NewStyle().Foreground(lipgloss.Color("6")),
		success: renderer.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    renderer.NewStyle().Foreground(lipgloss.Color("3")),
		fail:    renderer.NewStyle().Foreground(lipgloss.Color("1")),
		note:    renderer.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// Writer returns the underlying writer, used for subprocess output.
func (c *Console) Writer() io.Writer {
	return c.out
}

// Banner prints a headline.
func (c *Console) Banner(format string, args ...any) {
	c.print(c.banner, format, args...)
}

// Info prints a progress message.
func (c *Console) Info(format string, args ...any) {
	c.print(c.info, format, args...)
}

// Success prints a completed step.
func (c *Console) Success(format string, args ...any) {
	c.print(c.success, format, args...)
}

// Warn prints a message that needs attention but does not stop the wizard.
func (c *Console) Warn(format string, args ...any) {
	c.print(c.warn, format, args...)
}

// Fail prints a failure.
func (c *Console) Fail(format string, args ...any) {
	c.print(c.fail, format, args...)
}

// Note prints a secondary message.
func (c *Console) Note(format string, args ...any) {
	c.print(c.note, format, args...)
}

// Plain prints an unstyled line.
func (c *Console) Plain(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format+"\n", args...)
}

// Prompt prints text without a trailing newline.
func (c *Console) Prompt(text string) {
	_, _ = io.WriteString(c.out, text)
}

func (c *Console) print(style lipgloss.Style, format string, args ...any) {
	_, _ = fmt.Fprintln(c.out, style.Render(fmt.Sprintf(format, args...)))
}
