package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ktr0731/protoedit/config"
	"github.com/ktr0731/protoedit/fill"
	"github.com/ktr0731/protoedit/format"
	formatjson "github.com/ktr0731/protoedit/format/json"
	"github.com/ktr0731/protoedit/format/text"
	formatyaml "github.com/ktr0731/protoedit/format/yaml"
	"github.com/ktr0731/protoedit/normalize"
	"github.com/ktr0731/protoedit/present"
	"github.com/ktr0731/protoedit/present/json"
	"github.com/ktr0731/protoedit/present/name"
	"github.com/ktr0731/protoedit/present/table"
	"github.com/ktr0731/protoedit/present/yaml"
	"github.com/ktr0731/protoedit/schema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/proto"
)

func documentPresenter(output string) present.Presenter {
	if output == "yaml" {
		return yaml.NewPresenter()
	}
	return json.NewPresenter("  ")
}

func writePresented(w io.Writer, p present.Presenter, v interface{}) error {
	s, err := p.Format(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimSuffix(s, "\n"))
	return err
}

// typeArg returns the message name passed as the only argument.
func typeArg(cmd *cobra.Command) (string, error) {
	args := cmd.Flags().Args()
	if len(args) != 1 {
		return "", errors.New("a message name is required")
	}
	return args[0], nil
}

type typeRow struct {
	Name   string `json:"name" table:"message"`
	Fields int    `json:"fields" table:"fields"`
}

type types struct {
	Types []typeRow `json:"types"`
}

func (a *App) newTypesCommand(flags *flags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:     "types [options ...]",
		Aliases: []string{"ls", "list"},
		Short:   "list message types",
		Long:    `types lists the fully-qualified names of all messages the proto files define, including imported files.`,
		Example: strings.Join([]string{
			"        $ protoedit --proto api.proto types            # list message names",
			"        $ protoedit --proto api.proto types -f table   # list messages with their field counts",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			spec, err := a.loadSpec(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			names := append([]string{}, spec.MessageNames()...)
			sort.Strings(names)
			var v types
			for _, n := range names {
				md, err := spec.ResolveMessage(n)
				if err != nil {
					return err
				}
				v.Types = append(v.Types, typeRow{Name: n, Fields: md.Fields().Len()})
			}

			var p present.Presenter
			switch out {
			case "name":
				p = name.NewPresenter()
			case "table":
				p = table.NewPresenter()
			case "json":
				p = json.NewPresenter("  ")
			default:
				return errors.Errorf("unknown format %q", out)
			}
			return writePresented(cmd.OutOrStdout(), p, &v)
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.StringVarP(&out, "format", "f", "name", `output format. one of "name", "table" or "json"`)
	return cmd
}

func (a *App) newSchemaCommand(flags *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [options ...] <message>",
		Short: "derive the JSON Schema of a message",
		Long: `schema derives the JSON Schema (draft-07) of a message. The schema describes
the protojson shape of the message. Recursive types are cut with a placeholder.`,
		Example: strings.Join([]string{
			"        $ protoedit --proto api.proto schema api.Request         # JSON Schema in JSON",
			"        $ protoedit --proto api.proto -o yaml schema api.Request # JSON Schema in YAML",
		}, "\n"),
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			n, err := typeArg(cmd)
			if err != nil {
				return err
			}
			_, md, err := a.loadMessage(cmd.Context(), cfg, n)
			if err != nil {
				return err
			}
			return writePresented(cmd.OutOrStdout(), documentPresenter(cfg.Default.Output), schema.Derive(md))
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	initFlagSet(cmd.Flags(), a.cui.Writer())
	return cmd
}

func (a *App) newDefaultCommand(flags *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "default [options ...] <message>",
		Aliases: []string{"skeleton"},
		Short:   "generate a default-valued message",
		Long: `default generates a default-valued JSON object of a message. Fields appear in
declaration order. Nested messages are expanded up to --depth.`,
		Example: strings.Join([]string{
			"        $ protoedit --proto api.proto default api.Request           # default value",
			"        $ protoedit --proto api.proto default --depth 4 api.Request # expand deeper nested messages",
		}, "\n"),
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			n, err := typeArg(cmd)
			if err != nil {
				return err
			}
			_, md, err := a.loadMessage(cmd.Context(), cfg, n)
			if err != nil {
				return err
			}
			obj := fill.Defaults(md, fill.Options{MaxDepth: cfg.Default.Depth})
			return writePresented(cmd.OutOrStdout(), documentPresenter(cfg.Default.Output), obj)
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.Int("depth", fill.DefaultMaxDepth, "the maximum depth of nested messages")
	return cmd
}

func (a *App) newNormalizeCommand(flags *flags) *cobra.Command {
	var (
		file, input, path string
		enums, bytes      bool
	)
	cmd := &cobra.Command{
		Use:   "normalize [options ...] <message>",
		Short: "normalize loosely-typed input of a message",
		Long: `normalize replaces enum names with their numbers and encodes bytes fields
that are not valid base64 as base64. Unknown fields are kept as they are.`,
		Example: strings.Join([]string{
			`        $ echo '{"status": "ACTIVE"}' | protoedit --proto api.proto normalize api.Request`,
			"        $ protoedit --proto api.proto normalize --file in.json --path request api.Request",
			"        $ protoedit --proto api.proto normalize --enums=false api.Request < in.json",
		}, "\n"),
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			n, err := typeArg(cmd)
			if err != nil {
				return err
			}
			_, md, err := a.loadMessage(cmd.Context(), cfg, n)
			if err != nil {
				return err
			}
			b, err := a.readInput(file)
			if err != nil {
				return err
			}
			vals, err := decodeValues(b, input, path)
			if err != nil {
				return err
			}
			p := documentPresenter(cfg.Default.Output)
			for _, v := range vals {
				if enums {
					v = normalize.Enums(v, md)
				}
				if bytes {
					v = normalize.Bytes(v, md)
				}
				if err := writePresented(cmd.OutOrStdout(), p, v); err != nil {
					return err
				}
			}
			return nil
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.StringVar(&file, "file", "", "input file. the standard input is read if it is omitted")
	f.StringVar(&input, "input", inputJSON, `input format. one of "json" or "yaml"`)
	f.StringVar(&path, "path", "", "normalize only the sub-document the gjson path selects")
	f.BoolVar(&enums, "enums", true, "replace enum names with their numbers")
	f.BoolVar(&bytes, "bytes", true, "encode bytes fields as base64")
	return cmd
}

func (a *App) newTextCommand(flags *flags) *cobra.Command {
	var file, input, to string
	cmd := &cobra.Command{
		Use:     "text [options ...] <message>",
		Aliases: []string{"convert"},
		Short:   "convert input into the protobuf text format",
		Long: `text decodes input as messages and writes them in the canonical protobuf text format.
JSON and YAML input are normalized before decoding. Consecutive messages are separated by an empty line.`,
		Example: strings.Join([]string{
			`        $ echo '{"name": "foo"}' | protoedit --proto api.proto text api.Request`,
			"        $ protoedit --proto api.proto text --input binary --file req.bin api.Request",
			"        $ protoedit --proto api.proto text --input yaml --to json --file req.yaml api.Request",
		}, "\n"),
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			n, err := typeArg(cmd)
			if err != nil {
				return err
			}
			spec, md, err := a.loadMessage(cmd.Context(), cfg, n)
			if err != nil {
				return err
			}
			b, err := a.readInput(file)
			if err != nil {
				return err
			}
			msgs, err := decodeMessages(spec, md, b, input)
			if err != nil {
				return err
			}

			var impl format.MessageFormatterInterface
			w := cmd.OutOrStdout()
			switch to {
			case "text":
				impl = text.NewMessageFormatter(w)
			case "json":
				impl = formatjson.NewMessageFormatter(w, false)
			case "yaml":
				impl = formatyaml.NewMessageFormatter(w, false)
			default:
				return errors.Errorf("unknown output format %q", to)
			}
			f := format.NewMessageFormatter(impl)
			for _, m := range msgs {
				if err := f.FormatMessage(proto.Message(m)); err != nil {
					return errors.Wrap(err, "failed to format a message")
				}
			}
			return f.Done()
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.StringVar(&file, "file", "", "input file. the standard input is read if it is omitted")
	f.StringVar(&input, "input", inputJSON, `input format. one of "json", "yaml" or "binary"`)
	f.StringVar(&to, "to", "text", `output format. one of "text", "json" or "yaml"`)
	return cmd
}

func (a *App) newCheckCommand(flags *flags) *cobra.Command {
	var file, input string
	cmd := &cobra.Command{
		Use:     "check [options ...] <message>",
		Aliases: []string{"validate"},
		Short:   "check whether input fits a message",
		Long: `check normalizes input and decodes it as messages. It reports every value
that doesn't fit the message.`,
		Example: strings.Join([]string{
			"        $ protoedit --proto api.proto check --file in.json api.Request",
		}, "\n"),
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			n, err := typeArg(cmd)
			if err != nil {
				return err
			}
			spec, md, err := a.loadMessage(cmd.Context(), cfg, n)
			if err != nil {
				return err
			}
			b, err := a.readInput(file)
			if err != nil {
				return err
			}
			msgs, err := decodeMessages(spec, md, b, input)
			if err != nil {
				return err
			}
			a.cui.Info(fmt.Sprintf("ok: %d value(s) fit %s", len(msgs), md.FullName()))
			return nil
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.StringVar(&file, "file", "", "input file. the standard input is read if it is omitted")
	f.StringVar(&input, "input", inputJSON, `input format. one of "json", "yaml" or "binary"`)
	return cmd
}

func (a *App) newDescribeCommand(flags *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "desc [options ...] <symbol>",
		Aliases: []string{"describe"},
		Short:   "describe the descriptor of a symbol",
		Long: `desc shows the descriptor of the given symbol in the .proto syntax.
The symbol should be a fully-qualified name of a message, an enum or a service.`,
		Example: strings.Join([]string{
			`        $ protoedit --proto api.proto desc api.Request # describe the message descriptor of "api.Request"`,
		}, "\n"),
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			args := cmd.Flags().Args()
			if len(args) != 1 {
				return errors.New("a symbol is required")
			}
			spec, err := a.loadSpec(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			d, err := spec.ResolveSymbol(args[0])
			if err != nil {
				return err
			}
			s, err := spec.FormatDescriptor(d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(s, "\n"))
			return err
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	initFlagSet(cmd.Flags(), a.cui.Writer())
	return cmd
}
