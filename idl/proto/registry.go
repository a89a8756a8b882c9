package proto

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// anyResolver resolves the message types of a spec for decoding google.protobuf.Any.
// Types the spec doesn't know fall back to protoregistry.GlobalTypes.
type anyResolver struct {
	protoregistry.ExtensionTypeResolver
	spec *spec
}

func newAnyResolver(s *spec) *anyResolver {
	return &anyResolver{
		ExtensionTypeResolver: protoregistry.GlobalTypes,
		spec:                  s,
	}
}

func (r *anyResolver) FindMessageByName(m protoreflect.FullName) (protoreflect.MessageType, error) {
	md, ok := r.spec.msgDescs[string(m)]
	if !ok {
		// Fallback to protoregistry.GlobalTypes.
		return protoregistry.GlobalTypes.FindMessageByName(m)
	}
	return dynamicpb.NewMessageType(md), nil
}

func (r *anyResolver) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	if n := strings.LastIndex(url, "/"); n != -1 {
		url = url[n+1:]
	}
	return r.FindMessageByName(protoreflect.FullName(url))
}
