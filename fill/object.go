package fill

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Object is a JSON object that remembers the order its keys were set in.
// Marshaling it emits the keys in that order.
type Object struct {
	keys []string
	vals map[string]interface{}
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]interface{})}
}

// Set sets k to v. Setting an existing key keeps its original position.
func (o *Object) Set(k string, v interface{}) {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

// Get returns the value of k.
func (o *Object) Get(k string) (interface{}, bool) {
	v, ok := o.vals[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Map converts o into the generic form produced by encoding/json, so nested
// Objects become map[string]interface{} and slices become []interface{}.
func (o *Object) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(o.vals))
	for k, v := range o.vals {
		m[k] = generic(v)
	}
	return m
}

func generic(v interface{}) interface{} {
	switch v := v.(type) {
	case *Object:
		return v.Map()
	case []interface{}:
		l := make([]interface{}, len(v))
		for i, e := range v {
			l[i] = generic(e)
		}
		return l
	default:
		return v
	}
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes o as a YAML mapping that keeps the key order.
func (o *Object) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range o.keys {
		var kn, vn yaml.Node
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		if err := vn.Encode(o.vals[k]); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &kn, &vn)
	}
	return n, nil
}
