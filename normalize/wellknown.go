package normalize

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/ktr0731/protoedit/walker"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// WellKnown rewrites the plain message forms of Timestamp, Duration, FieldMask
// and ListValue (as produced by fill.Defaults, e.g. {"seconds": 0, "nanos": 0})
// into the string and array forms protojson requires. Values already in
// protojson form, and objects that can't be converted, are left as they are.
func WellKnown(v interface{}, md protoreflect.MessageDescriptor) interface{} {
	return walk(v, md, wellKnownLeaf)
}

func wellKnownLeaf(fd protoreflect.FieldDescriptor, v interface{}) (interface{}, bool) {
	m, ok := walker.Resolve(fd).(walker.Message)
	if !ok {
		return nil, false
	}
	wk := walker.WellKnown(m.Desc)
	switch wk {
	case walker.Timestamp, walker.Duration, walker.FieldMask, walker.ListValue:
	default:
		return nil, false
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return v, true
	}
	if wk == walker.ListValue {
		if values, ok := obj["values"].([]interface{}); ok && len(obj) == 1 {
			return values, true
		}
		return v, true
	}

	var msg proto.Message
	switch wk {
	case walker.Timestamp, walker.Duration:
		seconds, ok1 := integer(obj["seconds"])
		nanos, ok2 := integer(obj["nanos"])
		if !ok1 || !ok2 || len(obj) > 2 || nanos < math.MinInt32 || nanos > math.MaxInt32 {
			return v, true
		}
		if wk == walker.Timestamp {
			msg = &timestamppb.Timestamp{Seconds: seconds, Nanos: int32(nanos)}
		} else {
			msg = &durationpb.Duration{Seconds: seconds, Nanos: int32(nanos)}
		}
	case walker.FieldMask:
		paths, ok := obj["paths"].([]interface{})
		if !ok || len(obj) > 1 {
			return v, true
		}
		fm := &fieldmaskpb.FieldMask{}
		for _, p := range paths {
			s, ok := p.(string)
			if !ok {
				return v, true
			}
			fm.Paths = append(fm.Paths, s)
		}
		msg = fm
	}

	b, err := protojson.Marshal(msg)
	if err != nil {
		return v, true
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return v, true
	}
	return s, true
}

// integer accepts a missing value as 0, JSON numbers and decimal strings.
func integer(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case nil:
		return 0, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	}
	return 0, false
}
