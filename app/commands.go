package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/ktr0731/protoedit/config"
	"github.com/ktr0731/protoedit/logger"
	"github.com/ktr0731/protoedit/meta"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runFunc is a common entrypoint for Run func.
func runFunc(
	flags *flags,
	f func(*cobra.Command, *config.Config) error,
) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := flags.validate(); err != nil {
			return errors.Wrap(err, "invalid flag condition")
		}

		switch {
		case flags.meta.version:
			printVersion(cmd.OutOrStdout())
			return nil
		case flags.meta.help:
			return cmd.Help()
		}

		// Pass Flags instead of LocalFlags because the config is merged with common and local flags.
		cfg, err := config.Get(cmd.Flags())
		if err != nil {
			return errors.Wrap(err, "failed to merge command line flags and config files")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if flags.meta.verbose {
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetPrefix(cfg.Log.Prefix)
			if err := logger.SetLevel(cfg.Log.Level); err != nil {
				return err
			}
			defer logger.Reset()
		}

		// The entrypoint for the command.
		return f(cmd, cfg)
	}
}

func (a *App) newRootCommand(flags *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   meta.AppName,
		Short: "schema-driven editing helpers for Protocol Buffers messages",
		RunE: runFunc(flags, func(cmd *cobra.Command, _ *config.Config) error {
			return cmd.Help()
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	bindFlags(cmd.PersistentFlags(), flags, a.cui.Writer())
	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		usageFunc(cmd.OutOrStdout(), cmd)()
	})
	cmd.SetOut(a.cui.Writer())
	cmd.SetErr(a.cui.ErrWriter())
	cmd.AddCommand(
		a.newTypesCommand(flags),
		a.newSchemaCommand(flags),
		a.newDefaultCommand(flags),
		a.newNormalizeCommand(flags),
		a.newTextCommand(flags),
		a.newCheckCommand(flags),
		a.newDescribeCommand(flags),
		a.newImportsCommand(flags),
		a.newServeCommand(flags),
		a.newConfigCommand(flags),
		a.newVersionCommand(),
	)
	return cmd
}

func bindFlags(f *pflag.FlagSet, flags *flags, w io.Writer) {
	initFlagSet(f, w)

	f.StringSliceVar(&flags.common.path, "path", nil, "proto file paths")
	f.StringSliceVar(&flags.common.proto, "proto", nil, "proto file names")
	f.StringVarP(&flags.common.output, "output", "o", "", `output format of documents. one of "json" or "yaml"`)
	f.StringVar(&flags.common.cache, "cache", "", `descriptor cache. one of "none", "file", "memcache" or "redis"`)
	f.StringVar(&flags.common.cacheAddr, "cache-addr", "", "server address of memcache or redis")
	f.StringVar(&flags.common.logLevel, "log-level", "", "log level used with --verbose")

	f.BoolVar(&flags.meta.verbose, "verbose", false, "verbose output")
	f.BoolVarP(&flags.meta.version, "version", "v", false, "display version and exit")
	f.BoolVarP(&flags.meta.help, "help", "h", false, "display help text and exit")
}

func initFlagSet(f *pflag.FlagSet, w io.Writer) {
	f.SortFlags = false
	f.SetOutput(w)
}

var usageFormat = `
Usage: %s

%sOptions:
%s
`

// usageFunc is the generator for usage output.
func usageFunc(out io.Writer, cmd *cobra.Command) func() {
	return func() {
		printVersion(out)

		var cmds bytes.Buffer
		if cmd.HasAvailableSubCommands() {
			w := tabwriter.NewWriter(&cmds, 0, 8, 8, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "Available Commands:")
			for _, c := range cmd.Commands() {
				if !c.IsAvailableCommand() {
					continue
				}
				fmt.Fprintf(w, "        %s\t%s\n", c.Name(), c.Short)
			}
			w.Flush()
			cmds.WriteString("\n")
		}
		if cmd.Example != "" {
			fmt.Fprintf(&cmds, "Examples:\n%s\n\n", cmd.Example)
		}

		var buf bytes.Buffer
		w := tabwriter.NewWriter(&buf, 0, 8, 8, ' ', tabwriter.TabIndent)
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			name := "--" + f.Name
			if f.Shorthand != "" {
				name += ", -" + f.Shorthand
			}
			typ, _ := pflag.UnquoteUsage(f)
			if typ != "" {
				name += " " + typ
			}
			usage := f.Usage
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
				usage += fmt.Sprintf(` (default "%s")`, f.DefValue)
			}
			fmt.Fprintf(w, "        %s\t%s\n", name, usage)
		})
		w.Flush()
		fmt.Fprintf(out, usageFormat, cmd.UseLine(), cmds.String(), buf.String())
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "display version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printVersion(cmd.OutOrStdout())
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
}

func (a *App) newConfigCommand(flags *flags) *cobra.Command {
	var edit, editGlobal bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "display or edit the merged config",
		Long: `config displays the config merged from the global config, the project local config,
environment variables and command line flags, in TOML.`,
		Example: strings.Join([]string{
			"        $ protoedit config               # display the merged config",
			"        $ protoedit config --edit        # edit the project local config by using $EDITOR",
			"        $ protoedit config --edit-global # edit the global config by using $EDITOR",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			switch {
			case edit:
				if err := config.Edit(); err != nil {
					return errors.Wrap(err, "failed to edit the project local config file")
				}
				return nil
			case editGlobal:
				if err := config.EditGlobal(); err != nil {
					return errors.Wrap(err, "failed to edit the global config file")
				}
				return nil
			}
			return cfg.Encode(cmd.OutOrStdout())
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.BoolVarP(&edit, "edit", "e", false, "edit the project config file by using $EDITOR")
	f.BoolVar(&editGlobal, "edit-global", false, "edit the global config file by using $EDITOR")
	return cmd
}
