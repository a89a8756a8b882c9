package app

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/ktr0731/protoedit/fill"
	"github.com/ktr0731/protoedit/idl"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"gopkg.in/yaml.v3"
)

// Input formats.
const (
	inputJSON   = "json"
	inputYAML   = "yaml"
	inputBinary = "binary"
)

// readInput reads the whole content of fname, or the standard input if fname is empty.
func (a *App) readInput(fname string) ([]byte, error) {
	if fname == "" {
		b, err := io.ReadAll(a.in)
		return b, errors.Wrap(err, "failed to read the standard input")
	}
	b, err := afero.ReadFile(a.fs, fname)
	return b, errors.Wrapf(err, "failed to read %s", fname)
}

// decodeValues decodes every JSON value or YAML document of b into the generic
// shapes encoding/json produces. If path is not empty, only the sub-document
// the gjson path selects is decoded.
func decodeValues(b []byte, format, path string) ([]interface{}, error) {
	switch format {
	case inputJSON:
		if path != "" {
			if !gjson.ValidBytes(b) {
				return nil, errors.New("--path requires a single valid JSON value")
			}
			res := gjson.GetBytes(b, path)
			if !res.Exists() {
				return nil, errors.Errorf("nothing matches the path %q", path)
			}
			b = []byte(res.Raw)
		}
		return decodeJSONValues(b)
	case inputYAML:
		if path != "" {
			return nil, errors.New("--path is available only with JSON input")
		}
		return decodeYAMLValues(b)
	default:
		return nil, errors.Errorf("unknown input format %q", format)
	}
}

func decodeJSONValues(b []byte) ([]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var vals []interface{}
	for {
		var v interface{}
		err := dec.Decode(&v)
		if err == io.EOF {
			return vals, nil
		}
		if err != nil {
			return nil, errors.Wrap(fill.ErrCodecMismatch, err.Error())
		}
		vals = append(vals, v)
	}
}

func decodeYAMLValues(b []byte) ([]interface{}, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	var vals []interface{}
	for {
		var v interface{}
		err := dec.Decode(&v)
		if err == io.EOF {
			return vals, nil
		}
		if err != nil {
			return nil, errors.Wrap(fill.ErrCodecMismatch, err.Error())
		}
		vals = append(vals, v)
	}
}

// decodeMessages decodes b into messages of md.
// JSON and YAML values are normalized before decoding. Binary input is a single message.
func decodeMessages(spec idl.Spec, md protoreflect.MessageDescriptor, b []byte, format string) ([]*dynamicpb.Message, error) {
	if format == inputBinary {
		m := dynamicpb.NewMessage(md)
		opts := proto.UnmarshalOptions{Resolver: spec.TypeResolver()}
		if err := opts.Unmarshal(b, m); err != nil {
			return nil, errors.Wrapf(err, "input doesn't match %s", md.FullName())
		}
		return []*dynamicpb.Message{m}, nil
	}

	opts := protojson.UnmarshalOptions{Resolver: spec.TypeResolver()}
	var (
		msgs   []*dynamicpb.Message
		result error
	)
	switch format {
	case inputJSON:
		f := fill.NewSilentFiller(bytes.NewReader(b), fill.WithUnmarshalOptions(opts))
		for i := 1; ; i++ {
			m := dynamicpb.NewMessage(md)
			err := f.Fill(m)
			if err == io.EOF {
				break
			}
			if errors.Is(err, fill.ErrCodecMismatch) {
				return nil, multierror.Append(result, errors.Wrapf(err, "value #%d", i))
			}
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "value #%d", i))
				continue
			}
			msgs = append(msgs, m)
		}
	case inputYAML:
		vals, err := decodeYAMLValues(b)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			m := dynamicpb.NewMessage(md)
			if err := fill.Decode(v, m, opts); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "value #%d", i+1))
				continue
			}
			msgs = append(msgs, m)
		}
	default:
		return nil, errors.Errorf("unknown input format %q", format)
	}
	return msgs, result
}
