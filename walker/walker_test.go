package walker_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ktr0731/protoedit/internal/prototest"
	"github.com/ktr0731/protoedit/walker"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const testProto = `
syntax = "proto3";

package walker.test;

import "google/protobuf/timestamp.proto";
import "google/protobuf/wrappers.proto";

enum Color {
  RED = 0;
  GREEN = 1;
}

message Inner {}

message Message {
  int32 number = 1;
  Color color = 2;
  Inner inner = 3;
  map<string, Inner> inners = 4;
  repeated string names = 5;
  oneof choice {
    string text = 6;
    int64 count = 7;
  }
  optional bool flag = 8;
  google.protobuf.Timestamp created_at = 9;
  google.protobuf.BytesValue blob = 10;
  bytes raw = 11;
}
`

func message(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()
	return prototest.MessageFromSource(t, testProto, "walker.test.Message")
}

func TestResolve(t *testing.T) {
	md := message(t)

	cases := map[string]struct {
		field string
		check func(t *testing.T, typ walker.Type)
	}{
		"scalar": {
			field: "number",
			check: func(t *testing.T, typ walker.Type) {
				s, ok := typ.(walker.Scalar)
				if !ok {
					t.Fatalf("expected Scalar, but got %T", typ)
				}
				if s.Kind != protoreflect.Int32Kind {
					t.Errorf("expected int32, but got %s", s.Kind)
				}
			},
		},
		"enum": {
			field: "color",
			check: func(t *testing.T, typ walker.Type) {
				e, ok := typ.(walker.Enum)
				if !ok {
					t.Fatalf("expected Enum, but got %T", typ)
				}
				if e.Desc.FullName() != "walker.test.Color" {
					t.Errorf("unexpected enum: %s", e.Desc.FullName())
				}
			},
		},
		"message": {
			field: "inner",
			check: func(t *testing.T, typ walker.Type) {
				m, ok := typ.(walker.Message)
				if !ok {
					t.Fatalf("expected Message, but got %T", typ)
				}
				if m.Desc.FullName() != "walker.test.Inner" {
					t.Errorf("unexpected message: %s", m.Desc.FullName())
				}
			},
		},
		"map": {
			field: "inners",
			check: func(t *testing.T, typ walker.Type) {
				m, ok := typ.(walker.Map)
				if !ok {
					t.Fatalf("expected Map, but got %T", typ)
				}
				if m.Key.Kind() != protoreflect.StringKind {
					t.Errorf("unexpected key kind: %s", m.Key.Kind())
				}
				if _, ok := walker.Resolve(m.Value).(walker.Message); !ok {
					t.Errorf("map value should be a message")
				}
			},
		},
		"repeated scalar is still a scalar": {
			field: "names",
			check: func(t *testing.T, typ walker.Type) {
				if _, ok := typ.(walker.Scalar); !ok {
					t.Fatalf("expected Scalar, but got %T", typ)
				}
			},
		},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			fd := md.Fields().ByName(protoreflect.Name(c.field))
			c.check(t, walker.Resolve(fd))
		})
	}
}

func TestFields(t *testing.T) {
	md := message(t)

	var names []string
	for _, fd := range walker.Fields(md) {
		names = append(names, string(fd.Name()))
	}
	want := []string{"number", "color", "inner", "inners", "names", "text", "count", "flag", "created_at", "blob", "raw"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}
}

func TestOneof(t *testing.T) {
	md := message(t)
	fields := md.Fields()

	if od := walker.Oneof(fields.ByName("text")); od == nil || od.Name() != "choice" {
		t.Errorf("text should belong to oneof choice")
	}
	if !walker.IsFirstInOneof(fields.ByName("text")) {
		t.Errorf("text should be the first member of choice")
	}
	if walker.IsFirstInOneof(fields.ByName("count")) {
		t.Errorf("count should not be the first member of choice")
	}
	if od := walker.Oneof(fields.ByName("flag")); od != nil {
		t.Errorf("proto3 optional field must not be treated as a oneof member, but got %s", od.Name())
	}
	if walker.Oneof(fields.ByName("number")) != nil {
		t.Errorf("number doesn't belong to any oneof")
	}
}

func TestWellKnown(t *testing.T) {
	md := message(t)
	fields := md.Fields()

	if got := walker.WellKnown(fields.ByName("created_at").Message()); got != walker.Timestamp {
		t.Errorf("expected Timestamp, but got %d", got)
	}
	if got := walker.WellKnown(fields.ByName("inner").Message()); got != walker.NotWellKnown {
		t.Errorf("expected NotWellKnown, but got %d", got)
	}
	k, ok := walker.WrappedKind(fields.ByName("blob").Message())
	if !ok || k != protoreflect.BytesKind {
		t.Errorf("expected BytesValue to wrap bytes, but got %s (%t)", k, ok)
	}
	if !walker.IsBytes(fields.ByName("blob")) || !walker.IsBytes(fields.ByName("raw")) {
		t.Errorf("blob and raw should be bytes")
	}
	if walker.IsBytes(fields.ByName("names")) {
		t.Errorf("names should not be bytes")
	}
}

func TestLookup(t *testing.T) {
	md := message(t)

	cases := map[string]struct {
		key  string
		want protoreflect.Name
	}{
		"JSON name":     {key: "createdAt", want: "created_at"},
		"declared name": {key: "created_at", want: "created_at"},
		"unknown":       {key: "unknown"},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			fd := walker.Lookup(md, c.key)
			if c.want == "" {
				if fd != nil {
					t.Errorf("expected nil, but got %s", fd.Name())
				}
				return
			}
			if fd == nil || fd.Name() != c.want {
				t.Errorf("expected %s, but got %v", c.want, fd)
			}
		})
	}
}

func TestPath(t *testing.T) {
	md := message(t)
	p := walker.Path{}

	if !p.Enter(md) {
		t.Fatalf("first Enter must succeed")
	}
	if p.Enter(md) {
		t.Errorf("Enter must fail while the type is on the path")
	}
	p.Leave(md)
	if p.Contains(md) {
		t.Errorf("Leave must remove the type from the path")
	}
	if !p.Enter(md) {
		t.Errorf("Enter must succeed again after Leave")
	}
}

func TestZero(t *testing.T) {
	cases := map[protoreflect.Kind]interface{}{
		protoreflect.Int32Kind:  0,
		protoreflect.Int64Kind:  0,
		protoreflect.DoubleKind: float64(0),
		protoreflect.BoolKind:   false,
		protoreflect.StringKind: "",
		protoreflect.BytesKind:  "",
	}
	for k, want := range cases {
		if got := walker.Zero(k); got != want {
			t.Errorf("%s: expected %v (%T), but got %v (%T)", k, want, want, got, got)
		}
	}
}
