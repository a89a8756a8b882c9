package walker

import "google.golang.org/protobuf/reflect/protoreflect"

// WellKnownType classifies the google.protobuf message types that have special
// JSON projections.
type WellKnownType int

const (
	NotWellKnown WellKnownType = iota
	Wrapper
	Timestamp
	Duration
	Struct
	Value
	ListValue
	Empty
	FieldMask
	Any
)

const wellKnownPackage = "google.protobuf"

var wellKnownTypes = map[protoreflect.Name]WellKnownType{
	"DoubleValue": Wrapper,
	"FloatValue":  Wrapper,
	"Int64Value":  Wrapper,
	"UInt64Value": Wrapper,
	"Int32Value":  Wrapper,
	"UInt32Value": Wrapper,
	"BoolValue":   Wrapper,
	"StringValue": Wrapper,
	"BytesValue":  Wrapper,
	"Timestamp":   Timestamp,
	"Duration":    Duration,
	"Struct":      Struct,
	"Value":       Value,
	"ListValue":   ListValue,
	"Empty":       Empty,
	"FieldMask":   FieldMask,
	"Any":         Any,
}

// WellKnown classifies md. Only top-level messages of the google.protobuf
// package are well-known.
func WellKnown(md protoreflect.MessageDescriptor) WellKnownType {
	if md.ParentFile() == nil || md.ParentFile().Package() != wellKnownPackage {
		return NotWellKnown
	}
	if md.FullName().Parent() != wellKnownPackage {
		return NotWellKnown
	}
	return wellKnownTypes[md.Name()]
}

// WrappedKind returns the scalar kind a wrapper type holds.
// ok is false if md is not a wrapper.
func WrappedKind(md protoreflect.MessageDescriptor) (kind protoreflect.Kind, ok bool) {
	if WellKnown(md) != Wrapper {
		return 0, false
	}
	fd := md.Fields().ByName("value")
	if fd == nil {
		return 0, false
	}
	return fd.Kind(), true
}

// IsBytes reports whether values of fd are bytes in JSON, either because fd
// is a bytes field or because it holds a google.protobuf.BytesValue.
func IsBytes(fd protoreflect.FieldDescriptor) bool {
	switch t := Resolve(fd).(type) {
	case Scalar:
		return t.Kind == protoreflect.BytesKind
	case Message:
		k, ok := WrappedKind(t.Desc)
		return ok && k == protoreflect.BytesKind
	}
	return false
}
