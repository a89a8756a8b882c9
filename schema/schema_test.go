package schema_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ktr0731/protoedit/fill"
	"github.com/ktr0731/protoedit/internal/prototest"
	"github.com/ktr0731/protoedit/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const testProto = `
syntax = "proto3";

package schema.test;

import "google/protobuf/any.proto";
import "google/protobuf/duration.proto";
import "google/protobuf/empty.proto";
import "google/protobuf/field_mask.proto";
import "google/protobuf/struct.proto";
import "google/protobuf/timestamp.proto";
import "google/protobuf/wrappers.proto";

enum Color {
  RED = 0;
  BLUE = 2;
}

message Scalars {
  int32 i32 = 1;
  sint32 s32 = 2;
  uint32 u32 = 3;
  int64 i64 = 4;
  fixed64 f64 = 5;
  float f = 6;
  double d = 7;
  bool b = 8;
  string s = 9;
  bytes raw = 10;
}

message Leaf {
  string name = 1;
}

message Pair {
  Leaf left = 1;
  Leaf right = 2;
}

message Tree {
  string name = 1;
  repeated Tree children = 2;
}

message A {
  A self = 1;
  B b = 2;
}

message B {
  A a = 1;
}

message Everything {
  Color color = 1;
  repeated string tags = 2;
  map<string, Leaf> leaves = 3;
  map<uint32, string> by_id = 4;
  map<int64, string> by_offset = 5;
  map<bool, Color> by_flag = 6;
  oneof choice {
    Leaf leaf = 7;
    string text = 8;
  }
  google.protobuf.Timestamp created_at = 9;
  google.protobuf.Duration ttl = 10;
  google.protobuf.StringValue nick = 11;
  google.protobuf.Int64Value big = 12;
  google.protobuf.Struct meta = 13;
  google.protobuf.Value anything = 14;
  google.protobuf.ListValue list = 15;
  google.protobuf.FieldMask mask = 16;
  google.protobuf.Empty nothing = 17;
  google.protobuf.Any detail = 18;
  Tree tree = 19;
  A a = 20;
}
`

const proto2Source = `
syntax = "proto2";

package schema.test2;

message Message {
  required string id = 1;
  optional int32 count = 2;
  oneof kind {
    Message parent = 3;
    string label = 4;
  }
}

message Top {
  required Mid mid = 1;
}

message Mid {
  required Leaf leaf = 1;
}

message Leaf {
  required int32 x = 1;
}
`

func message(t *testing.T, name string) protoreflect.MessageDescriptor {
	t.Helper()
	return prototest.MessageFromSource(t, testProto, name)
}

func TestDerive_Scalars(t *testing.T) {
	s := schema.Derive(message(t, "schema.test.Scalars"))

	assert.Equal(t, schema.Draft07, s.SchemaURI)
	assert.Equal(t, "schema.test.Scalars", s.Title)
	assert.True(t, s.Type.Is("object"))

	cases := map[string]struct {
		want *schema.Schema
	}{
		"i32": {want: &schema.Schema{Type: schema.Types{"integer"}}},
		"s32": {want: &schema.Schema{Type: schema.Types{"integer"}}},
		"u32": {want: &schema.Schema{Type: schema.Types{"integer"}}},
		"i64": {want: &schema.Schema{Type: schema.Types{"integer", "string"}}},
		"f64": {want: &schema.Schema{Type: schema.Types{"integer", "string"}}},
		"f":   {want: &schema.Schema{Type: schema.Types{"number"}}},
		"d":   {want: &schema.Schema{Type: schema.Types{"number"}}},
		"b":   {want: &schema.Schema{Type: schema.Types{"boolean"}}},
		"s":   {want: &schema.Schema{Type: schema.Types{"string"}}},
		"raw": {want: &schema.Schema{Type: schema.Types{"string"}, ContentEncoding: "base64"}},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(c.want, s.Properties[name]); diff != "" {
				t.Errorf("(-want, +got)\n%s", diff)
			}
		})
	}
}

func TestDerive_Fields(t *testing.T) {
	s := schema.Derive(message(t, "schema.test.Everything"))
	props := s.Properties

	t.Run("enum", func(t *testing.T) {
		want := &schema.Schema{
			Title: "schema.test.Color",
			Enum:  []interface{}{"RED", "BLUE", int32(0), int32(2)},
		}
		if diff := cmp.Diff(want, props["color"]); diff != "" {
			t.Errorf("(-want, +got)\n%s", diff)
		}
	})

	t.Run("repeated", func(t *testing.T) {
		want := &schema.Schema{
			Type:  schema.Types{"array"},
			Items: &schema.Schema{Type: schema.Types{"string"}},
		}
		if diff := cmp.Diff(want, props["tags"]); diff != "" {
			t.Errorf("(-want, +got)\n%s", diff)
		}
	})

	t.Run("maps", func(t *testing.T) {
		leaves := props["leaves"]
		assert.True(t, leaves.Type.Is("object"))
		assert.Equal(t, "schema.test.Leaf", leaves.AdditionalProperties.Title)
		assert.Nil(t, leaves.PropertyNames)

		assert.Equal(t, `^[0-9]+$`, props["byId"].PropertyNames.Pattern)
		assert.Equal(t, `^-?[0-9]+$`, props["byOffset"].PropertyNames.Pattern)
		assert.Equal(t, []interface{}{"true", "false"}, props["byFlag"].PropertyNames.Enum)
		assert.Equal(t, "schema.test.Color", props["byFlag"].AdditionalProperties.Title)
	})

	t.Run("oneof", func(t *testing.T) {
		for _, k := range []string{"leaf", "text"} {
			assert.Equal(t, "Only one field of oneof 'choice' may be set.", props[k].Description)
		}
		assert.Empty(t, props["color"].Description)
	})

	t.Run("well-known types", func(t *testing.T) {
		if diff := cmp.Diff(&schema.Schema{Type: schema.Types{"string"}}, props["nick"]); diff != "" {
			t.Errorf("StringValue: (-want, +got)\n%s", diff)
		}
		if diff := cmp.Diff(&schema.Schema{Type: schema.Types{"integer", "string"}}, props["big"]); diff != "" {
			t.Errorf("Int64Value: (-want, +got)\n%s", diff)
		}
		assert.True(t, props["meta"].Type.Is("object"))
		assert.Empty(t, props["anything"].Type, "Value accepts any JSON")

		ts := props["createdAt"]
		require.Len(t, ts.AnyOf, 2)
		assert.Equal(t, "date-time", ts.AnyOf[0].Format)
		assert.Contains(t, ts.AnyOf[1].Properties, "seconds")

		require.Len(t, props["list"].AnyOf, 2)
		assert.True(t, props["list"].AnyOf[0].Type.Is("array"))

		assert.Contains(t, props["detail"].Properties, "typeUrl")
	})
}

func TestDerive_Required(t *testing.T) {
	md := prototest.MessageFromSource(t, proto2Source, "schema.test2.Message")
	s := schema.Derive(md)
	assert.Empty(t, s.Required)
	assert.Equal(t, "Required.", s.Properties["id"].Description)
	assert.Empty(t, s.Properties["count"].Description)
}

func TestDerive_RecursiveOneof(t *testing.T) {
	md := prototest.MessageFromSource(t, proto2Source, "schema.test2.Message")
	s := schema.Derive(md)

	want := &schema.Schema{
		Type:        schema.Types{"object"},
		Description: "Recursive reference to schema.test2.Message Only one field of oneof 'kind' may be set.",
	}
	if diff := cmp.Diff(want, s.Properties["parent"]); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}
	assert.Equal(t, "Only one field of oneof 'kind' may be set.", s.Properties["label"].Description)
}

func TestDerive_Cycles(t *testing.T) {
	t.Run("self reference", func(t *testing.T) {
		s := schema.Derive(message(t, "schema.test.A"))
		want := &schema.Schema{
			Type:        schema.Types{"object"},
			Description: "Recursive reference to schema.test.A",
		}
		if diff := cmp.Diff(want, s.Properties["self"]); diff != "" {
			t.Errorf("(-want, +got)\n%s", diff)
		}
	})

	t.Run("mutual reference", func(t *testing.T) {
		s := schema.Derive(message(t, "schema.test.A"))
		b := s.Properties["b"]
		assert.Equal(t, "schema.test.B", b.Title)
		assert.Equal(t, "Recursive reference to schema.test.A", b.Properties["a"].Description)
	})

	t.Run("repeated self reference", func(t *testing.T) {
		s := schema.Derive(message(t, "schema.test.Tree"))
		children := s.Properties["children"]
		assert.True(t, children.Type.Is("array"))
		assert.Equal(t, "Recursive reference to schema.test.Tree", children.Items.Description)
	})

	t.Run("siblings are expanded", func(t *testing.T) {
		s := schema.Derive(message(t, "schema.test.Pair"))
		for _, k := range []string{"left", "right"} {
			assert.Equal(t, "schema.test.Leaf", s.Properties[k].Title)
			assert.Contains(t, s.Properties[k].Properties, "name")
		}
	})

	t.Run("type reached on another branch", func(t *testing.T) {
		s := schema.Derive(message(t, "schema.test.Everything"))
		a := s.Properties["a"]
		assert.Equal(t, "schema.test.A", a.Title)
		assert.Equal(t, "schema.test.B", a.Properties["b"].Title)
	})
}

func TestTypes(t *testing.T) {
	cases := map[string]struct {
		types schema.Types
		json  string
	}{
		"single":   {types: schema.Types{"string"}, json: `"string"`},
		"multiple": {types: schema.Types{"integer", "string"}, json: `["integer","string"]`},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(c.types)
			require.NoError(t, err)
			assert.Equal(t, c.json, string(b))

			var got schema.Types
			require.NoError(t, json.Unmarshal(b, &got))
			assert.Equal(t, c.types, got)
		})
	}
}

// The default value of every message must be valid against the message's schema.
func TestDerive_AcceptsDefaults(t *testing.T) {
	cases := map[string]struct {
		src  string
		name string
	}{
		"scalars":        {src: testProto, name: "schema.test.Scalars"},
		"siblings":       {src: testProto, name: "schema.test.Pair"},
		"self reference": {src: testProto, name: "schema.test.Tree"},
		"mutual":         {src: testProto, name: "schema.test.A"},
		"everything":     {src: testProto, name: "schema.test.Everything"},
		"proto2":         {src: proto2Source, name: "schema.test2.Message"},
		"required chain": {src: proto2Source, name: "schema.test2.Top"},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			md := prototest.MessageFromSource(t, c.src, c.name)

			b, err := json.Marshal(schema.Derive(md))
			require.NoError(t, err)

			compiler := jsonschema.NewCompiler()
			require.NoError(t, compiler.AddResource("schema.json", bytes.NewReader(b)))
			sch, err := compiler.Compile("schema.json")
			require.NoError(t, err)

			for _, depth := range []int{1, 2, 4} {
				def, err := fill.DefaultJSON(md, fill.Options{MaxDepth: depth}, "")
				require.NoError(t, err)

				var v interface{}
				require.NoError(t, json.Unmarshal([]byte(def), &v))
				if err := sch.Validate(v); err != nil {
					t.Errorf("depth %d: default value %s is not valid: %s", depth, def, err)
				}
			}
		})
	}
}
