// Package normalize rewrites loosely-typed JSON values into the strict forms a
// protobuf JSON decoder accepts.
//
// Values are the generic shapes encoding/json produces: map[string]interface{},
// []interface{} and scalars. Every pass returns a new value and leaves its
// input untouched. Object keys that don't name a field, and leaves a pass
// doesn't care about, are passed through as they are.
package normalize

import (
	"encoding/base64"
	"regexp"

	"github.com/ktr0731/protoedit/walker"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// leafFunc rewrites a single (non-repeated) value of fd. It returns ok=false if
// fd is not a field the pass handles, in which case the walk descends into
// message values instead.
type leafFunc func(fd protoreflect.FieldDescriptor, v interface{}) (nv interface{}, ok bool)

// Enums replaces enum names with their numbers. Unknown names are left as they
// are so that a validator can report them.
func Enums(v interface{}, md protoreflect.MessageDescriptor) interface{} {
	return walk(v, md, enumLeaf)
}

// Bytes encodes bytes values that are not valid base64 as base64 of their
// UTF-8 text.
func Bytes(v interface{}, md protoreflect.MessageDescriptor) interface{} {
	return walk(v, md, bytesLeaf)
}

// All applies Enums and Bytes. The passes never touch the same field, so
// their order doesn't matter.
func All(v interface{}, md protoreflect.MessageDescriptor) interface{} {
	return Bytes(Enums(v, md), md)
}

func enumLeaf(fd protoreflect.FieldDescriptor, v interface{}) (interface{}, bool) {
	if fd.Kind() != protoreflect.EnumKind {
		return nil, false
	}
	name, ok := v.(string)
	if !ok {
		return v, true
	}
	ev := fd.Enum().Values().ByName(protoreflect.Name(name))
	if ev == nil {
		return v, true
	}
	return int32(ev.Number()), true
}

func bytesLeaf(fd protoreflect.FieldDescriptor, v interface{}) (interface{}, bool) {
	if !walker.IsBytes(fd) {
		return nil, false
	}
	s, ok := v.(string)
	if !ok || s == "" || IsValidBase64(s) {
		return v, true
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), true
}

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// IsValidBase64 reports whether s looks like standard, padded base64:
// only base64 alphabet characters followed by at most two '=' and a length
// that is a multiple of 4. The empty string is valid.
func IsValidBase64(s string) bool {
	return len(s)%4 == 0 && base64Pattern.MatchString(s)
}

func walk(v interface{}, md protoreflect.MessageDescriptor, leaf leafFunc) interface{} {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	out := make(map[string]interface{}, len(obj))
	for k, fv := range obj {
		fd := walker.Lookup(md, k)
		if fd == nil {
			out[k] = fv
			continue
		}
		out[k] = field(fd, fv, leaf)
	}
	return out
}

func field(fd protoreflect.FieldDescriptor, v interface{}, leaf leafFunc) interface{} {
	switch {
	case fd.IsMap():
		entries, ok := v.(map[string]interface{})
		if !ok {
			return v
		}
		out := make(map[string]interface{}, len(entries))
		for k, ev := range entries {
			out[k] = single(fd.MapValue(), ev, leaf)
		}
		return out
	case fd.IsList():
		elems, ok := v.([]interface{})
		if !ok {
			return single(fd, v, leaf)
		}
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = single(fd, e, leaf)
		}
		return out
	}
	return single(fd, v, leaf)
}

func single(fd protoreflect.FieldDescriptor, v interface{}, leaf leafFunc) interface{} {
	if nv, ok := leaf(fd, v); ok {
		return nv
	}
	m, ok := walker.Resolve(fd).(walker.Message)
	if !ok || opaque(m.Desc) {
		return v
	}
	return walk(v, m.Desc, leaf)
}

// opaque reports whether the JSON form of md is free-form, so its keys must not
// be interpreted as fields of md.
func opaque(md protoreflect.MessageDescriptor) bool {
	switch walker.WellKnown(md) {
	case walker.Struct, walker.Value, walker.ListValue, walker.Any:
		return true
	}
	return false
}
