// Package walker provides traversal primitives shared by every component that
// descends a protobuf descriptor tree.
//
// Descriptors are treated as immutable, shared data. Nothing in this package
// (or in its callers) mutates a descriptor.
package walker

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Type is the resolved type of a field. It is always one of Scalar, Enum,
// Message or Map, so callers can switch on it exhaustively.
type Type interface {
	isType()
}

// Scalar is a field whose value is a protobuf scalar (numbers, bool, string, bytes).
type Scalar struct {
	Kind protoreflect.Kind
}

// Enum is a field whose value is a member of Desc.
type Enum struct {
	Desc protoreflect.EnumDescriptor
}

// Message is a field whose value is a message of type Desc.
type Message struct {
	Desc protoreflect.MessageDescriptor
}

// Map is a map field. Key and Value are the fields of the synthetic map entry.
type Map struct {
	Key, Value protoreflect.FieldDescriptor
}

func (Scalar) isType()  {}
func (Enum) isType()    {}
func (Message) isType() {}
func (Map) isType()     {}

// Resolve returns the resolved type of fd. The repeated-ness of fd is not
// reflected in the result; check fd.IsList() for it.
func Resolve(fd protoreflect.FieldDescriptor) Type {
	if fd.IsMap() {
		return Map{Key: fd.MapKey(), Value: fd.MapValue()}
	}
	switch fd.Kind() {
	case protoreflect.EnumKind:
		return Enum{Desc: fd.Enum()}
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return Message{Desc: fd.Message()}
	default:
		return Scalar{Kind: fd.Kind()}
	}
}

// Fields returns the fields of md in declaration order.
func Fields(md protoreflect.MessageDescriptor) []protoreflect.FieldDescriptor {
	fields := md.Fields()
	fds := make([]protoreflect.FieldDescriptor, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		fds[i] = fields.Get(i)
	}
	return fds
}

// Oneof returns the oneof group fd belongs to. Synthetic oneofs generated for
// proto3 optional fields are not groups in the "at most one member" sense, so
// Oneof returns nil for them.
func Oneof(fd protoreflect.FieldDescriptor) protoreflect.OneofDescriptor {
	od := fd.ContainingOneof()
	if od == nil || od.IsSynthetic() {
		return nil
	}
	return od
}

// IsFirstInOneof reports whether fd is the first declared member of its oneof group.
// It returns false if fd doesn't belong to a group.
func IsFirstInOneof(fd protoreflect.FieldDescriptor) bool {
	od := Oneof(fd)
	if od == nil || od.Fields().Len() == 0 {
		return false
	}
	return od.Fields().Get(0).FullName() == fd.FullName()
}

// Key returns the JSON property name used for fd. It is the lowerCamelCase
// name protojson emits.
func Key(fd protoreflect.FieldDescriptor) string {
	return fd.JSONName()
}

// Lookup finds the field of md named by key. key may be either the JSON name or
// the declared name of the field. Lookup returns nil if no field matches.
func Lookup(md protoreflect.MessageDescriptor, key string) protoreflect.FieldDescriptor {
	fields := md.Fields()
	if fd := fields.ByJSONName(key); fd != nil {
		return fd
	}
	if fd := fields.ByName(protoreflect.Name(key)); fd != nil {
		return fd
	}
	return nil
}
