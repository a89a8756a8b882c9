// Package schema derives JSON Schemas from protobuf message descriptors.
//
// The derived schema describes the protojson shape of a message and is meant
// for structural validation and editor assistance, not for strict enforcement
// of every protobuf rule.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/ktr0731/protoedit/walker"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Draft07 is the meta-schema URI of the derived schemas.
const Draft07 = "http://json-schema.org/draft-07/schema#"

// Schema is a JSON Schema document. Only the keywords Derive uses are modeled.
type Schema struct {
	SchemaURI            string             `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Title                string             `json:"title,omitempty" yaml:"title,omitempty"`
	Description          string             `json:"description,omitempty" yaml:"description,omitempty"`
	Type                 Types              `json:"type,omitempty" yaml:"type,omitempty"`
	Format               string             `json:"format,omitempty" yaml:"format,omitempty"`
	Pattern              string             `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	ContentEncoding      string             `json:"contentEncoding,omitempty" yaml:"contentEncoding,omitempty"`
	Enum                 []interface{}      `json:"enum,omitempty" yaml:"enum,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty" yaml:"propertyNames,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
}

// Types is the value of the "type" keyword. A single type is encoded as a
// string, several types as an array.
type Types []string

func (t Types) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

func (t *Types) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Types{s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(b, &ss); err != nil {
		return err
	}
	*t = ss
	return nil
}

func (t Types) MarshalYAML() (interface{}, error) {
	if len(t) == 1 {
		return t[0], nil
	}
	return []string(t), nil
}

// Is reports whether t contains typ.
func (t Types) Is(typ string) bool {
	for _, s := range t {
		if s == typ {
			return true
		}
	}
	return false
}

// Derive returns the JSON Schema of md.
//
// Recursive types are cut at the point where a type is reached again on the
// same descent path: that property gets a placeholder schema instead. The
// same type reached on different branches is expanded on each of them.
func Derive(md protoreflect.MessageDescriptor) *Schema {
	d := &deriver{path: walker.Path{}}
	s := d.messageType(md)
	s.SchemaURI = Draft07
	return s
}

type deriver struct {
	path walker.Path
}

func (d *deriver) messageType(md protoreflect.MessageDescriptor) *Schema {
	switch walker.WellKnown(md) {
	case walker.Wrapper:
		k, _ := walker.WrappedKind(md)
		return scalar(k)
	case walker.Value:
		// Any JSON value, including null.
		return &Schema{Title: string(md.FullName())}
	case walker.Struct:
		return &Schema{Title: string(md.FullName()), Type: Types{walker.JSONObject}}
	case walker.Timestamp:
		return d.alternatives(md, &Schema{Type: Types{walker.JSONString}, Format: "date-time"})
	case walker.Duration:
		return d.alternatives(md, &Schema{Type: Types{walker.JSONString}, Pattern: `^-?[0-9]+(\.[0-9]+)?s$`})
	case walker.FieldMask:
		return d.alternatives(md, &Schema{Type: Types{walker.JSONString}})
	case walker.ListValue:
		return d.alternatives(md, &Schema{Type: Types{walker.JSONArray}})
	}
	return d.message(md)
}

// alternatives accepts both the protojson string form of a well-known type and
// its plain message form.
func (d *deriver) alternatives(md protoreflect.MessageDescriptor, s *Schema) *Schema {
	return &Schema{
		Title: string(md.FullName()),
		AnyOf: []*Schema{s, d.message(md)},
	}
}

func (d *deriver) message(md protoreflect.MessageDescriptor) *Schema {
	if !d.path.Enter(md) {
		return placeholder(md)
	}
	defer d.path.Leave(md)

	s := &Schema{
		Title:      string(md.FullName()),
		Type:       Types{walker.JSONObject},
		Properties: make(map[string]*Schema, md.Fields().Len()),
	}
	for _, fd := range walker.Fields(md) {
		fs := d.field(fd)
		if od := walker.Oneof(fd); od != nil {
			fs.Description = joinDescription(fs.Description, oneofDescription(od))
		}
		// Not enforced: default values stop at the depth bound with {}.
		if fd.Cardinality() == protoreflect.Required {
			fs.Description = joinDescription(fs.Description, requiredDescription)
		}
		s.Properties[walker.Key(fd)] = fs
	}
	return s
}

func (d *deriver) field(fd protoreflect.FieldDescriptor) *Schema {
	if fd.IsList() {
		return &Schema{Type: Types{walker.JSONArray}, Items: d.value(fd)}
	}
	return d.value(fd)
}

// value returns the schema of a single value of fd.
func (d *deriver) value(fd protoreflect.FieldDescriptor) *Schema {
	switch t := walker.Resolve(fd).(type) {
	case walker.Scalar:
		return scalar(t.Kind)
	case walker.Enum:
		return enum(t.Desc)
	case walker.Message:
		return d.messageType(t.Desc)
	case walker.Map:
		return &Schema{
			Type:                 Types{walker.JSONObject},
			AdditionalProperties: d.value(t.Value),
			PropertyNames:        mapKey(t.Key.Kind()),
		}
	default:
		panic(fmt.Sprintf("unknown field type %T", t))
	}
}

func scalar(k protoreflect.Kind) *Schema {
	s := &Schema{Type: Types{walker.JSONType(k)}}
	switch {
	case walker.Is64Bit(k):
		s.Type = Types{walker.JSONInteger, walker.JSONString}
	case k == protoreflect.BytesKind:
		s.ContentEncoding = "base64"
	}
	return s
}

// enum accepts both the symbolic names and the numbers of ed.
func enum(ed protoreflect.EnumDescriptor) *Schema {
	values := ed.Values()
	vals := make([]interface{}, 0, values.Len()*2)
	for i := 0; i < values.Len(); i++ {
		vals = append(vals, string(values.Get(i).Name()))
	}
	for i := 0; i < values.Len(); i++ {
		vals = append(vals, int32(values.Get(i).Number()))
	}
	return &Schema{Title: string(ed.FullName()), Enum: vals}
}

// mapKey constrains JSON object keys of a map to the textual form of its key kind.
func mapKey(k protoreflect.Kind) *Schema {
	switch {
	case k == protoreflect.BoolKind:
		return &Schema{Enum: []interface{}{"true", "false"}}
	case walker.IsUnsigned(k):
		return &Schema{Pattern: `^[0-9]+$`}
	case walker.JSONType(k) == walker.JSONInteger:
		return &Schema{Pattern: `^-?[0-9]+$`}
	}
	return nil
}

func placeholder(md protoreflect.MessageDescriptor) *Schema {
	return &Schema{
		Type:        Types{walker.JSONObject},
		Description: fmt.Sprintf("Recursive reference to %s", md.FullName()),
	}
}

const requiredDescription = "Required."

func joinDescription(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

func oneofDescription(od protoreflect.OneofDescriptor) string {
	return fmt.Sprintf("Only one field of oneof '%s' may be set.", od.Name())
}
