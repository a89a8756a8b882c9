// Package app provides the entrypoint for protoedit.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ktr0731/protoedit/cui"
	"github.com/ktr0731/protoedit/meta"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// App is the root component for running the application.
type App struct {
	cui cui.UI
	cmd *cobra.Command

	// fs is the file system .proto files and inputs are read from.
	fs afero.Fs
	// in is the input used when no input file is passed.
	in io.Reader
}

// Option configures an App.
type Option func(*App)

// WithFs replaces the file system of the App.
func WithFs(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

// WithInput replaces the standard input of the App.
func WithInput(r io.Reader) Option {
	return func(a *App) {
		a.in = r
	}
}

// New instantiates a new App instance. ui must not be a nil.
func New(ui cui.UI, opts ...Option) *App {
	a := &App{
		cui: ui,
		fs:  afero.NewOsFs(),
		in:  os.Stdin,
	}
	for _, opt := range opts {
		opt(a)
	}
	var flags flags
	a.cmd = a.newRootCommand(&flags)
	return a
}

// Run starts the application. The return value means the exit code.
func (a *App) Run(args []string) int {
	return a.RunContext(context.Background(), args)
}

// RunContext is like Run, but commands stop when ctx is canceled.
func (a *App) RunContext(ctx context.Context, args []string) int {
	a.cmd.SetArgs(args)
	err := a.cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	a.cui.Error(fmt.Sprintf("%s: %s", meta.AppName, err))
	return 1
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", meta.AppName, meta.Version.String())
}
