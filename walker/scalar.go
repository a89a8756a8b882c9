package walker

import "google.golang.org/protobuf/reflect/protoreflect"

// JSON Schema primitive type names.
const (
	JSONInteger = "integer"
	JSONNumber  = "number"
	JSONBoolean = "boolean"
	JSONString  = "string"
	JSONObject  = "object"
	JSONArray   = "array"
)

var jsonTypes = map[protoreflect.Kind]string{
	protoreflect.DoubleKind:   JSONNumber,
	protoreflect.FloatKind:    JSONNumber,
	protoreflect.Int64Kind:    JSONInteger,
	protoreflect.Uint64Kind:   JSONInteger,
	protoreflect.Int32Kind:    JSONInteger,
	protoreflect.Uint32Kind:   JSONInteger,
	protoreflect.Fixed64Kind:  JSONInteger,
	protoreflect.Fixed32Kind:  JSONInteger,
	protoreflect.Sfixed64Kind: JSONInteger,
	protoreflect.Sfixed32Kind: JSONInteger,
	protoreflect.Sint64Kind:   JSONInteger,
	protoreflect.Sint32Kind:   JSONInteger,
	protoreflect.BoolKind:     JSONBoolean,
	protoreflect.StringKind:   JSONString,
	protoreflect.BytesKind:    JSONString,
}

// JSONType returns the JSON type of the scalar kind k.
// It returns an empty string if k is not a scalar kind.
func JSONType(k protoreflect.Kind) string {
	return jsonTypes[k]
}

// Is64Bit reports whether k is a 64-bit integer kind.
// protojson encodes these as strings.
func Is64Bit(k protoreflect.Kind) bool {
	switch k {
	case protoreflect.Int64Kind, protoreflect.Uint64Kind,
		protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind, protoreflect.Sint64Kind:
		return true
	}
	return false
}

// IsUnsigned reports whether k is an unsigned integer kind.
func IsUnsigned(k protoreflect.Kind) bool {
	switch k {
	case protoreflect.Uint32Kind, protoreflect.Uint64Kind,
		protoreflect.Fixed32Kind, protoreflect.Fixed64Kind:
		return true
	}
	return false
}

// Zero returns the JSON zero value of the scalar kind k:
// 0 for numbers, false for bool and "" for string and bytes.
func Zero(k protoreflect.Kind) interface{} {
	switch jsonTypes[k] {
	case JSONInteger:
		return 0
	case JSONNumber:
		return float64(0)
	case JSONBoolean:
		return false
	default:
		return ""
	}
}
