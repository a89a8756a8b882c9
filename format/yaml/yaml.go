// Package yaml provides a YAML formatter implementation.
package yaml

import (
	"io"

	"github.com/ktr0731/protoedit/format"
	"github.com/ktr0731/protoedit/format/json"
	"github.com/ktr0731/protoedit/present/yaml"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// messageFormatter writes each message as a YAML document.
type messageFormatter struct {
	w           io.Writer
	p           *yaml.Presenter
	pbMarshaler protojson.MarshalOptions
	n           int
}

// NewMessageFormatter returns a formatter that writes messages to w as YAML documents.
func NewMessageFormatter(w io.Writer, emitDefaults bool) format.MessageFormatterInterface {
	return &messageFormatter{
		w:           w,
		p:           yaml.NewPresenter(),
		pbMarshaler: protojson.MarshalOptions{EmitUnpopulated: emitDefaults},
	}
}

func (f *messageFormatter) FormatMessage(m proto.Message) error {
	v, err := json.ConvertProtoMessage(f.pbMarshaler, m)
	if err != nil {
		return err
	}
	s, err := f.p.Format(v)
	if err != nil {
		return err
	}
	if f.n > 0 {
		s = "---\n" + s
	}
	f.n++
	_, err = io.WriteString(f.w, s)
	return err
}

func (f *messageFormatter) Done() error {
	return nil
}
