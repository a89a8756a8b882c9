// Package text provides the canonical protobuf text format of messages.
package text

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ktr0731/protoedit/format"
	"github.com/ktr0731/protoedit/walker"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const indentUnit = "  "

// Format returns the text format of m.
//
// Fields are emitted in declaration order. Scalar and enum fields holding
// their zero value and empty repeated or map fields are omitted. A present
// message field is always emitted, as "name {}" if its body is empty.
// Each map entry is emitted as a "name { key: K value: V }" block, in key order.
// Every line, including the last one, ends with a newline.
func Format(m protoreflect.Message) string {
	var b bytes.Buffer
	p := &printer{w: &b}
	p.message(m)
	return b.String()
}

type printer struct {
	w      *bytes.Buffer
	indent int
}

func (p *printer) line(format string, a ...interface{}) {
	p.w.WriteString(strings.Repeat(indentUnit, p.indent))
	fmt.Fprintf(p.w, format, a...)
	p.w.WriteByte('\n')
}

func (p *printer) message(m protoreflect.Message) {
	for _, fd := range walker.Fields(m.Descriptor()) {
		name := fieldName(fd)
		v := m.Get(fd)
		switch {
		case fd.IsMap():
			p.mapEntries(name, fd, v.Map())
		case fd.IsList():
			l := v.List()
			for i := 0; i < l.Len(); i++ {
				p.value(name, fd, l.Get(i))
			}
		case fd.Message() != nil:
			if m.Has(fd) {
				p.value(name, fd, v)
			}
		case fd.HasPresence() && !m.Has(fd):
			// Get reports the declared default of an unset field.
		default:
			if !isZero(fd, v) {
				p.value(name, fd, v)
			}
		}
	}
}

// value emits a single, non-repeated value of fd.
func (p *printer) value(name string, fd protoreflect.FieldDescriptor, v protoreflect.Value) {
	if fd.Message() == nil {
		p.line("%s: %s", name, scalar(fd, v))
		return
	}
	p.nested(name, func() { p.message(v.Message()) })
}

func (p *printer) nested(name string, body func()) {
	start := p.w.Len()
	p.line("%s {", name)
	bodyStart := p.w.Len()

	p.indent++
	body()
	p.indent--

	if p.w.Len() == bodyStart {
		p.w.Truncate(start)
		p.line("%s {}", name)
		return
	}
	p.line("}")
}

func (p *printer) mapEntries(name string, fd protoreflect.FieldDescriptor, m protoreflect.Map) {
	if m.Len() == 0 {
		return
	}
	keys := make([]protoreflect.MapKey, 0, m.Len())
	m.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k)
		return true
	})
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	kfd, vfd := fd.MapKey(), fd.MapValue()
	for _, k := range keys {
		v := m.Get(k)
		p.nested(name, func() {
			p.line("key: %s", scalar(kfd, k.Value()))
			p.value("value", vfd, v)
		})
	}
}

func lessKey(a, b protoreflect.MapKey) bool {
	switch av := a.Interface().(type) {
	case bool:
		return !av && b.Bool()
	case int32, int64:
		return a.Int() < b.Int()
	case uint32, uint64:
		return a.Uint() < b.Uint()
	}
	return a.String() < b.String()
}

func fieldName(fd protoreflect.FieldDescriptor) string {
	if fd.Kind() == protoreflect.GroupKind {
		return string(fd.Message().Name())
	}
	return string(fd.Name())
}

func isZero(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return !v.Bool()
	case protoreflect.EnumKind:
		return v.Enum() == 0
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int() == 0
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return v.Uint() == 0
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		f := v.Float()
		return f == 0 && !math.Signbit(f)
	case protoreflect.StringKind:
		return v.String() == ""
	case protoreflect.BytesKind:
		return len(v.Bytes()) == 0
	}
	return false
}

func scalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) string {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return strconv.FormatBool(v.Bool())
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return strconv.FormatInt(int64(v.Enum()), 10)
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.FormatInt(v.Int(), 10)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.FormatUint(v.Uint(), 10)
	case protoreflect.FloatKind:
		return formatFloat(v.Float(), 32)
	case protoreflect.DoubleKind:
		return formatFloat(v.Float(), 64)
	case protoreflect.StringKind:
		return Quote([]byte(v.String()))
	case protoreflect.BytesKind:
		return Quote(v.Bytes())
	}
	return fmt.Sprint(v.Interface())
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}

// Quote returns b as a double-quoted text format literal. Printable ASCII is
// written as is. Quotes, backslashes, newlines, carriage returns and tabs use
// their short escapes, and every other byte is written as \xHH. Multi-byte
// UTF-8 characters are therefore escaped byte by byte, which keeps the literal
// ASCII-only and lossless for arbitrary bytes.
func Quote(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 2)
	sb.WriteByte('"')
	for _, c := range b {
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(&sb, `\x%02x`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// messageFormatter writes the text format of each message to w, separating
// consecutive messages with an empty line.
type messageFormatter struct {
	w io.Writer
	n int
}

// NewMessageFormatter returns a formatter that writes messages in text format to w.
func NewMessageFormatter(w io.Writer) format.MessageFormatterInterface {
	return &messageFormatter{w: w}
}

func (f *messageFormatter) FormatMessage(m proto.Message) error {
	s := Format(m.ProtoReflect())
	if f.n > 0 {
		s = "\n" + s
	}
	f.n++
	_, err := io.WriteString(f.w, s)
	return err
}

func (f *messageFormatter) Done() error {
	return nil
}
