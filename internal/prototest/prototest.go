// Package prototest provides helpers that compile inline .proto sources for tests.
package prototest

import (
	"context"
	"testing"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// DefaultFileName is the file name Source compiles its source as.
const DefaultFileName = "test.proto"

// Compile compiles names from srcs. The well-known types are always available.
func Compile(t testing.TB, srcs map[string]string, names ...string) linker.Files {
	t.Helper()

	c := &protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(srcs),
		}),
	}
	compiled, err := c.Compile(context.Background(), names...)
	if err != nil {
		t.Fatalf("failed to compile %v: %s", names, err)
	}
	return compiled
}

// Source compiles src as a single file and returns it.
func Source(t testing.TB, src string) linker.File {
	t.Helper()
	return Compile(t, map[string]string{DefaultFileName: src}, DefaultFileName)[0]
}

// Message returns the message named name from files. name is fully-qualified.
func Message(t testing.TB, files linker.Files, name string) protoreflect.MessageDescriptor {
	t.Helper()

	for _, f := range files {
		d := f.FindDescriptorByName(protoreflect.FullName(name))
		if d == nil {
			continue
		}
		md, ok := d.(protoreflect.MessageDescriptor)
		if !ok {
			t.Fatalf("%s is not a message, but %T", name, d)
		}
		return md
	}
	t.Fatalf("message %s not found", name)
	return nil
}

// MessageFromSource compiles src and returns its message named name.
func MessageFromSource(t testing.TB, src, name string) protoreflect.MessageDescriptor {
	t.Helper()
	return Message(t, linker.Files{Source(t, src)}, name)
}

// NewMessage returns an empty dynamic message of md.
func NewMessage(md protoreflect.MessageDescriptor) *dynamicpb.Message {
	return dynamicpb.NewMessage(md)
}
