// Package cui defines character user interfaces for I/O.
package cui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// UI provides formatted output for the application.
type UI interface {
	// Output writes out s to the writer with a line break.
	Output(s string)
	// Info is the same as Output, but distinguishes them for composition.
	Info(s string)
	// Warn writes out s to the error writer with a line break.
	Warn(s string)
	// Error writes out s to the error writer with a line break.
	Error(s string)

	Writer() io.Writer
	ErrWriter() io.Writer
}

type basicUI struct {
	writer, errWriter io.Writer
}

// New returns a new UI with the passed options. It writes to stdout and stderr by default.
func New(opts ...Option) UI {
	ui := &basicUI{
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(ui)
	}
	return ui
}

func (u *basicUI) Output(s string) {
	fmt.Fprintln(u.writer, s)
}

func (u *basicUI) Info(s string) {
	u.Output(s)
}

func (u *basicUI) Warn(s string) {
	fmt.Fprintln(u.errWriter, s)
}

func (u *basicUI) Error(s string) {
	fmt.Fprintln(u.errWriter, s)
}

func (u *basicUI) Writer() io.Writer {
	return u.writer
}

func (u *basicUI) ErrWriter() io.Writer {
	return u.errWriter
}

type coloredUI struct {
	UI
}

// NewColored wraps ui with a colored UI. Info is printed in blue, Warn in yellow
// and Error in red. If ui is already colored, NewColored returns it as it is.
func NewColored(ui UI) UI {
	if _, ok := ui.(*coloredUI); ok {
		return ui
	}
	return &coloredUI{ui}
}

func (u *coloredUI) Info(s string) {
	u.UI.Info(color.BlueString(s))
}

func (u *coloredUI) Warn(s string) {
	u.UI.Warn(color.YellowString(s))
}

func (u *coloredUI) Error(s string) {
	u.UI.Error(color.RedString(s))
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Console returns the UI for the standard streams. Colors are enabled only if
// colored is true and stderr is a terminal.
func Console(colored bool) UI {
	if !colored || !IsTerminal(os.Stderr) {
		return New(
			Writer(os.Stdout),
			ErrWriter(colorable.NewNonColorable(os.Stderr)),
		)
	}
	return NewColored(New(
		Writer(colorable.NewColorableStdout()),
		ErrWriter(colorable.NewColorableStderr()),
	))
}
