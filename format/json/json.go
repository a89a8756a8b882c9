// Package json provides a JSON formatter implementation.
package json

import (
	gojson "encoding/json"
	"io"

	"github.com/ktr0731/protoedit/format"
	"github.com/ktr0731/protoedit/present/json"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// messageFormatter formats messages into JSON objects. Each message is written
// on Done, one object per message.
type messageFormatter struct {
	w           io.Writer
	messages    []interface{}
	p           *json.Presenter
	pbMarshaler protojson.MarshalOptions
}

// NewMessageFormatter returns a formatter that writes messages to w as JSON.
// If emitDefaults is true, fields holding their default values are emitted too.
func NewMessageFormatter(w io.Writer, emitDefaults bool) format.MessageFormatterInterface {
	return &messageFormatter{
		w:           w,
		p:           json.NewPresenter("  "),
		pbMarshaler: protojson.MarshalOptions{EmitUnpopulated: emitDefaults},
	}
}

func (f *messageFormatter) FormatMessage(m proto.Message) error {
	v, err := ConvertProtoMessage(f.pbMarshaler, m)
	if err != nil {
		return err
	}
	f.messages = append(f.messages, v)
	return nil
}

func (f *messageFormatter) Done() error {
	for _, m := range f.messages {
		s, err := f.p.Format(m)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f.w, s+"\n"); err != nil {
			return err
		}
	}
	f.messages = nil
	return nil
}

// ConvertProtoMessage converts m into its generic JSON value, as decoded by encoding/json.
func ConvertProtoMessage(opts protojson.MarshalOptions, m proto.Message) (interface{}, error) {
	b, err := opts.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal a message into JSON")
	}
	var res interface{}
	if err := gojson.Unmarshal(b, &res); err != nil {
		return nil, errors.Wrap(err, "failed to decode the marshaled message")
	}
	return res, nil
}
