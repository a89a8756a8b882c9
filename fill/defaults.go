package fill

import (
	"encoding/json"

	"github.com/ktr0731/protoedit/walker"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// DefaultMaxDepth is the depth Defaults uses when Options.MaxDepth is not positive.
const DefaultMaxDepth = 2

// Options configures Defaults.
type Options struct {
	// MaxDepth bounds how deep nested message fields are expanded.
	// A nested message field is expanded only while CurrentDepth+1 < MaxDepth;
	// past the bound it becomes an empty object.
	MaxDepth int
	// CurrentDepth is the depth of the message passed to Defaults.
	CurrentDepth int
}

// Defaults returns a default-valued JSON object of md.
//
// Repeated fields are always empty arrays and map fields empty objects.
// Only the first declared member of each oneof is present. Scalars take their
// zero values and enums their first declared value. Well-known types take
// fixed defaults.
func Defaults(md protoreflect.MessageDescriptor, opts Options) *Object {
	g := &generator{maxDepth: opts.MaxDepth}
	if g.maxDepth <= 0 {
		g.maxDepth = DefaultMaxDepth
	}
	return g.message(md, opts.CurrentDepth)
}

// DefaultJSON is like Defaults, but returns the object as a JSON string.
// If indent is not empty, the output is indented with it.
func DefaultJSON(md protoreflect.MessageDescriptor, opts Options, indent string) (string, error) {
	obj := Defaults(md, opts)
	var (
		b   []byte
		err error
	)
	if indent == "" {
		b, err = json.Marshal(obj)
	} else {
		b, err = json.MarshalIndent(obj, "", indent)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to marshal the default value of %s", md.FullName())
	}
	return string(b), nil
}

type generator struct {
	maxDepth int
}

func (g *generator) message(md protoreflect.MessageDescriptor, depth int) *Object {
	obj := NewObject()
	for _, fd := range walker.Fields(md) {
		if walker.Oneof(fd) != nil && !walker.IsFirstInOneof(fd) {
			continue
		}
		obj.Set(walker.Key(fd), g.field(fd, depth))
	}
	return obj
}

func (g *generator) field(fd protoreflect.FieldDescriptor, depth int) interface{} {
	if fd.IsList() {
		return []interface{}{}
	}

	switch t := walker.Resolve(fd).(type) {
	case walker.Map:
		return NewObject()
	case walker.Scalar:
		return walker.Zero(t.Kind)
	case walker.Enum:
		return firstEnumValue(t.Desc)
	case walker.Message:
		if v, ok := wellKnownDefault(t.Desc); ok {
			return v
		}
		if depth+1 < g.maxDepth {
			return g.message(t.Desc, depth+1)
		}
		return NewObject()
	}
	return nil
}

func firstEnumValue(ed protoreflect.EnumDescriptor) interface{} {
	if ed.Values().Len() == 0 {
		return 0
	}
	return string(ed.Values().Get(0).Name())
}

func wellKnownDefault(md protoreflect.MessageDescriptor) (interface{}, bool) {
	switch walker.WellKnown(md) {
	case walker.Wrapper:
		k, _ := walker.WrappedKind(md)
		return walker.Zero(k), true
	case walker.Timestamp, walker.Duration:
		obj := NewObject()
		obj.Set("seconds", 0)
		obj.Set("nanos", 0)
		return obj, true
	case walker.Struct, walker.Empty:
		return NewObject(), true
	case walker.Value:
		return nil, true
	case walker.ListValue:
		obj := NewObject()
		obj.Set("values", []interface{}{})
		return obj, true
	case walker.FieldMask:
		obj := NewObject()
		obj.Set("paths", []interface{}{})
		return obj, true
	case walker.Any:
		obj := NewObject()
		obj.Set("typeUrl", "")
		obj.Set("value", "")
		return obj, true
	}
	return nil, false
}
