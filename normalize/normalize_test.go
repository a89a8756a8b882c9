package normalize_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ktr0731/protoedit/internal/prototest"
	"github.com/ktr0731/protoedit/normalize"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const testProto = `
syntax = "proto3";

package normalize.test;

import "google/protobuf/struct.proto";
import "google/protobuf/wrappers.proto";

enum Status {
  UNKNOWN = 0;
  ACTIVE = 1;
}

message Item {
  Status status = 1;
  bytes data = 2;
}

message Message {
  Status status = 1;
  repeated Status statuses = 2;
  map<string, Status> by_name = 3;
  Item item = 4;
  repeated Item items = 5;
  map<int32, Item> item_by_id = 6;
  bytes data = 7;
  repeated bytes chunks = 8;
  google.protobuf.BytesValue blob = 9;
  google.protobuf.Struct meta = 10;
  string name = 11;
}
`

func message(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()
	return prototest.MessageFromSource(t, testProto, "normalize.test.Message")
}

func TestEnums(t *testing.T) {
	md := message(t)

	cases := map[string]struct {
		in   interface{}
		want interface{}
	}{
		"name": {
			in:   map[string]interface{}{"status": "ACTIVE"},
			want: map[string]interface{}{"status": int32(1)},
		},
		"number is kept": {
			in:   map[string]interface{}{"status": float64(1)},
			want: map[string]interface{}{"status": float64(1)},
		},
		"unknown name is kept": {
			in:   map[string]interface{}{"status": "NOPE"},
			want: map[string]interface{}{"status": "NOPE"},
		},
		"repeated": {
			in:   map[string]interface{}{"statuses": []interface{}{"ACTIVE", "UNKNOWN"}},
			want: map[string]interface{}{"statuses": []interface{}{int32(1), int32(0)}},
		},
		"map values": {
			in:   map[string]interface{}{"byName": map[string]interface{}{"ACTIVE": "ACTIVE"}},
			want: map[string]interface{}{"byName": map[string]interface{}{"ACTIVE": int32(1)}},
		},
		"nested message": {
			in: map[string]interface{}{
				"item":     map[string]interface{}{"status": "ACTIVE"},
				"items":    []interface{}{map[string]interface{}{"status": "UNKNOWN"}},
				"itemById": map[string]interface{}{"1": map[string]interface{}{"status": "ACTIVE"}},
			},
			want: map[string]interface{}{
				"item":     map[string]interface{}{"status": int32(1)},
				"items":    []interface{}{map[string]interface{}{"status": int32(0)}},
				"itemById": map[string]interface{}{"1": map[string]interface{}{"status": int32(1)}},
			},
		},
		"declared name key": {
			in:   map[string]interface{}{"by_name": map[string]interface{}{"k": "ACTIVE"}},
			want: map[string]interface{}{"by_name": map[string]interface{}{"k": int32(1)}},
		},
		"unknown key is kept": {
			in:   map[string]interface{}{"extra": "ACTIVE"},
			want: map[string]interface{}{"extra": "ACTIVE"},
		},
		"struct is opaque": {
			in:   map[string]interface{}{"meta": map[string]interface{}{"status": "ACTIVE"}},
			want: map[string]interface{}{"meta": map[string]interface{}{"status": "ACTIVE"}},
		},
		"not an object": {
			in:   "ACTIVE",
			want: "ACTIVE",
		},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			got := normalize.Enums(c.in, md)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("(-want, +got)\n%s", diff)
			}
		})
	}
}

func TestBytes(t *testing.T) {
	md := message(t)

	cases := map[string]struct {
		in   interface{}
		want interface{}
	}{
		"plain text": {
			in:   map[string]interface{}{"data": "hello"},
			want: map[string]interface{}{"data": "aGVsbG8="},
		},
		"valid base64 is kept": {
			in:   map[string]interface{}{"data": "aGVsbG8="},
			want: map[string]interface{}{"data": "aGVsbG8="},
		},
		"empty is kept": {
			in:   map[string]interface{}{"data": ""},
			want: map[string]interface{}{"data": ""},
		},
		"repeated": {
			in:   map[string]interface{}{"chunks": []interface{}{"hi!", "AAAA"}},
			want: map[string]interface{}{"chunks": []interface{}{"aGkh", "AAAA"}},
		},
		"bytes wrapper": {
			in:   map[string]interface{}{"blob": "a b"},
			want: map[string]interface{}{"blob": "YSBi"},
		},
		"string field is untouched": {
			in:   map[string]interface{}{"name": "hello"},
			want: map[string]interface{}{"name": "hello"},
		},
		"nested": {
			in:   map[string]interface{}{"items": []interface{}{map[string]interface{}{"data": "x"}}},
			want: map[string]interface{}{"items": []interface{}{map[string]interface{}{"data": "eA=="}}},
		},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			got := normalize.Bytes(c.in, md)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("(-want, +got)\n%s", diff)
			}
		})
	}
}

func TestAll(t *testing.T) {
	md := message(t)

	in := map[string]interface{}{"status": "ACTIVE", "data": "hello", "name": "ACTIVE"}
	orig := map[string]interface{}{"status": "ACTIVE", "data": "hello", "name": "ACTIVE"}
	want := map[string]interface{}{"status": int32(1), "data": "aGVsbG8=", "name": "ACTIVE"}

	got := normalize.All(in, md)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}
	if diff := cmp.Diff(orig, in); diff != "" {
		t.Errorf("input must not be modified: (-want, +got)\n%s", diff)
	}
	if diff := cmp.Diff(want, normalize.All(got, md)); diff != "" {
		t.Errorf("All must be idempotent: (-want, +got)\n%s", diff)
	}
}

func TestIsValidBase64(t *testing.T) {
	cases := map[string]bool{
		"":         true,
		"AAAA":     true,
		"aGVsbG8=": true,
		"aGk=":     true,
		"YQ==":     true,
		"a+/9":     true,
		"hello":    false,
		"abc":      false,
		"a b=":     false,
		"YQ===":    false,
		"=AAA":     false,
		"aGVs-G8=": false,
	}
	for in, want := range cases {
		if got := normalize.IsValidBase64(in); got != want {
			t.Errorf("IsValidBase64(%q): expected %t, but got %t", in, want, got)
		}
	}
}
