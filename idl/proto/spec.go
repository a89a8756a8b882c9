package proto

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoprint"
	"github.com/ktr0731/protoedit/idl"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

type spec struct {
	roots []string
	fds   *descriptorpb.FileDescriptorSet
	files *protoregistry.Files

	msgNames []string
	// key: fully qualified message name, val: the message descriptor.
	msgDescs map[string]protoreflect.MessageDescriptor
}

// NewSpec instantiates an idl.Spec from a descriptor set. fds must contain
// every dependency of its files. roots are the paths of the files the spec
// was loaded for.
func NewSpec(roots []string, fds *descriptorpb.FileDescriptorSet) (idl.Spec, error) {
	return newSpec(roots, fds)
}

func newSpec(roots []string, fds *descriptorpb.FileDescriptorSet) (*spec, error) {
	files, err := protodesc.NewFiles(fds)
	if err != nil {
		return nil, errors.Wrap(err, "proto: invalid descriptor set")
	}

	msgDescs := make(map[string]protoreflect.MessageDescriptor)
	var collect func(msgs protoreflect.MessageDescriptors)
	collect = func(msgs protoreflect.MessageDescriptors) {
		for i := 0; i < msgs.Len(); i++ {
			md := msgs.Get(i)
			if md.IsMapEntry() {
				continue
			}
			msgDescs[string(md.FullName())] = md
			collect(md.Messages())
		}
	}
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		collect(fd.Messages())
		return true
	})

	msgNames := make([]string, 0, len(msgDescs))
	for name := range msgDescs {
		msgNames = append(msgNames, name)
	}
	sort.Strings(msgNames)

	return &spec{
		roots:    roots,
		fds:      fds,
		files:    files,
		msgNames: msgNames,
		msgDescs: msgDescs,
	}, nil
}

func (s *spec) Files() []string {
	return s.roots
}

func (s *spec) MessageNames() []string {
	return s.msgNames
}

func (s *spec) ResolveMessage(name string) (protoreflect.MessageDescriptor, error) {
	name = strings.TrimPrefix(name, ".")
	if md, ok := s.msgDescs[name]; ok {
		return md, nil
	}
	if d, err := s.files.FindDescriptorByName(protoreflect.FullName(name)); err == nil {
		return nil, errors.Wrapf(idl.ErrNotMessage, "%s is a %s", name, kindName(d))
	}

	var matched []string
	for _, fqn := range s.msgNames {
		if idl.MatchName(fqn, name) {
			matched = append(matched, fqn)
		}
	}
	switch len(matched) {
	case 0:
		return nil, errors.Wrapf(idl.ErrUnknownSymbol, "message %s", name)
	case 1:
		return s.msgDescs[matched[0]], nil
	}
	return nil, errors.Wrapf(idl.ErrAmbiguousSymbol, "%s matches %s", name, strings.Join(matched, ", "))
}

func (s *spec) ResolveSymbol(symbol string) (protoreflect.Descriptor, error) {
	d, err := s.files.FindDescriptorByName(protoreflect.FullName(strings.TrimPrefix(symbol, ".")))
	if err != nil {
		return nil, errors.Wrapf(idl.ErrUnknownSymbol, "symbol %s", symbol)
	}
	return d, nil
}

// FormatDescriptor formats d as .proto source.
func (s *spec) FormatDescriptor(d protoreflect.Descriptor) (string, error) {
	jd, err := desc.WrapDescriptor(d)
	if err != nil {
		return "", errors.Wrapf(err, "failed to wrap the descriptor of %s", d.FullName())
	}

	p := &protoprint.Printer{
		Compact:                  true,
		ForceFullyQualifiedNames: true,
		SortElements:             true,
	}
	str, err := p.PrintProtoToString(jd)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert the descriptor to string")
	}

	out := strings.TrimSpace(str)

	return fmt.Sprintf("%s:\n%s", d.FullName(), out), nil
}

func (s *spec) FileDescriptorSet() *descriptorpb.FileDescriptorSet {
	return s.fds
}

func (s *spec) TypeResolver() idl.TypeResolver {
	return newAnyResolver(s)
}

func kindName(d protoreflect.Descriptor) string {
	switch d.(type) {
	case protoreflect.EnumDescriptor:
		return "enum"
	case protoreflect.EnumValueDescriptor:
		return "enum value"
	case protoreflect.FieldDescriptor:
		return "field"
	case protoreflect.OneofDescriptor:
		return "oneof"
	case protoreflect.ServiceDescriptor:
		return "service"
	case protoreflect.MethodDescriptor:
		return "method"
	case protoreflect.FileDescriptor:
		return "file"
	}
	return "symbol"
}
