package app

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ktr0731/protoedit/config"
	"github.com/ktr0731/protoedit/imports"
	"github.com/ktr0731/protoedit/logger"
	"github.com/ktr0731/protoedit/present/json"
	"github.com/ktr0731/protoedit/present/table"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type importRow struct {
	File   string `table:"file"`
	Import string `table:"import"`
	Target string `table:"resolved to"`
}

type importRows struct {
	Rows []importRow
}

type importReport struct {
	Main       string   `json:"main"`
	Unresolved []string `json:"unresolved"`
	Order      []string `json:"order,omitempty"`
	Cycle      []string `json:"cycle,omitempty"`
}

// readProtoFiles returns the sources of all .proto files under dir, keyed by
// their slash-separated path relative to dir.
func readProtoFiles(fsys afero.Fs, dir string) (map[string]string, error) {
	files := make(map[string]string)
	err := afero.Walk(fsys, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(p) != ".proto" {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		b, err := afero.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read proto files under %s", dir)
	}
	return files, nil
}

func (a *App) reportImports(w io.Writer, dir, main, format string) error {
	files, err := readProtoFiles(a.fs, dir)
	if err != nil {
		return err
	}
	main = path.Clean(filepath.ToSlash(main))
	if _, ok := files[main]; !ok {
		return errors.Errorf("%s is not found under %s", main, dir)
	}
	g := imports.NewGraph(files, main)
	if len(g.Unresolved) != 0 {
		a.cui.Warn("unresolved imports: " + strings.Join(g.Unresolved, ", "))
	}

	switch format {
	case "table":
		var v importRows
		paths := make([]string, 0, len(g.Files))
		for p := range g.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			for _, e := range g.Files[p].Imports {
				target := e.Target
				switch {
				case e.IsWellKnown():
					target = "(well-known)"
				case !e.Resolved():
					target = "(unresolved)"
				}
				v.Rows = append(v.Rows, importRow{File: p, Import: e.Path, Target: target})
			}
		}
		return writePresented(w, table.NewPresenter(), &v)
	case "json":
		r := importReport{Main: main, Unresolved: g.Unresolved}
		order, err := g.Order()
		var cerr *imports.CycleError
		switch {
		case errors.As(err, &cerr):
			r.Cycle = cerr.Path
		case err != nil:
			return err
		default:
			r.Order = order
		}
		return writePresented(w, json.NewPresenter("  "), &r)
	default:
		return errors.Errorf("unknown format %q", format)
	}
}

func (a *App) newImportsCommand(flags *flags) *cobra.Command {
	var (
		dir, out string
		watching bool
	)
	cmd := &cobra.Command{
		Use:   "imports [options ...] <file>",
		Short: "inspect imports of proto files",
		Long: `imports reads all .proto files under --dir and reports how the imports of them
are resolved. Relative imports are resolved against the importing file.`,
		Example: strings.Join([]string{
			"        $ protoedit imports api/api.proto                   # list imports of files under the current directory",
			"        $ protoedit imports --dir protos -f json api.proto  # report unresolved imports and the load order",
			"        $ protoedit imports --watch api/api.proto           # report again whenever a file changes",
		}, "\n"),
		RunE: runFunc(flags, func(cmd *cobra.Command, _ *config.Config) error {
			args := cmd.Flags().Args()
			if len(args) != 1 {
				return errors.New("a proto file is required")
			}
			report := func() error {
				return a.reportImports(cmd.OutOrStdout(), dir, args[0], out)
			}
			if !watching {
				return report()
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return watch(ctx, a.fs, dir, func() {
				if err := report(); err != nil {
					a.cui.Error(err.Error())
				}
			})
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.StringVar(&dir, "dir", ".", "the directory proto files are read from")
	f.StringVarP(&out, "format", "f", "table", `output format. one of "table" or "json"`)
	f.BoolVar(&watching, "watch", false, "report again whenever a proto file under --dir changes")
	return cmd
}

const watchDebounce = 100 * time.Millisecond

// watch calls fn once, and again after .proto files under dir change, until
// ctx is canceled. Directories are discovered through fsys, which must be
// backed by the OS filesystem. Events within watchDebounce are coalesced.
func watch(ctx context.Context, fsys afero.Fs, dir string, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create a file watcher")
	}
	defer w.Close()

	err = afero.Walk(fsys, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	fn()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := fsys.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.Add(ev.Name); err != nil {
						logger.Warnf("failed to watch %s: %s", ev.Name, err)
					}
					continue
				}
			}
			if filepath.Ext(ev.Name) != ".proto" {
				continue
			}
			logger.Debugf("%s: %s", ev.Op, ev.Name)
			timer.Reset(watchDebounce)
		case <-timer.C:
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watcher error: %s", err)
		}
	}
}
