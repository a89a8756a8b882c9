// Package idl represents an Interface Definition Language (IDL) schema loaded
// from files.
//
// A Spec is an explicit, immutable registry of the loaded descriptors. It is
// built once per load and passed to every operation that needs descriptors;
// nothing in the application keeps a global registry.
//
// Currently, only Protocol Buffers is supported as an IDL.
package idl

import (
	"errors"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

var (
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrNotMessage      = errors.New("symbol is not a message")
	ErrAmbiguousSymbol = errors.New("ambiguous symbol")
)

// TypeResolver resolves message and extension types of a Spec.
// It is used for decoding google.protobuf.Any values.
type TypeResolver interface {
	protoregistry.ExtensionTypeResolver
	protoregistry.MessageTypeResolver
}

// Spec represents the schema loaded from IDL files.
type Spec interface {
	// Files returns the paths of the loaded root files, in the order they were passed to the loader.
	Files() []string

	// MessageNames returns all message names the spec loaded, including nested
	// messages and messages of imported files.
	// Message names are fully-qualified (the form of <package>.<message> in Protocol Buffers3).
	// The returned slice is ordered by ascending order.
	MessageNames() []string

	// ResolveMessage returns the descriptor of a message.
	// name is either fully-qualified, or a suffix of exactly one fully-qualified
	// message name that starts at a '.' boundary (e.g. "Message" or "pkg.Message").
	// ResolveMessage may return these errors:
	//
	//   - ErrUnknownSymbol: no message matches name.
	//   - ErrAmbiguousSymbol: name matches several messages.
	//   - ErrNotMessage: name is a fully-qualified symbol that is not a message.
	//
	ResolveMessage(name string) (protoreflect.MessageDescriptor, error)

	// ResolveSymbol returns the descriptor of a symbol.
	// The symbol should be fully-qualified.
	// ResolveSymbol may returns these errors:
	//
	//   - ErrUnknownSymbol: symbol is not loaded.
	//
	ResolveSymbol(symbol string) (protoreflect.Descriptor, error)

	// FormatDescriptor formats d as IDL source.
	FormatDescriptor(d protoreflect.Descriptor) (string, error)

	// FileDescriptorSet returns the loaded files and all of their dependencies,
	// with every file placed after its dependencies.
	FileDescriptorSet() *descriptorpb.FileDescriptorSet

	// TypeResolver returns the resolver of the types the spec loaded.
	// Unknown types fall back to the global registry.
	TypeResolver() TypeResolver
}

// MatchName reports whether the fully-qualified name fqn is named by name, as
// described in Spec.ResolveMessage.
func MatchName(fqn, name string) bool {
	name = strings.TrimPrefix(name, ".")
	if fqn == name {
		return true
	}
	return strings.HasSuffix(fqn, "."+name)
}
