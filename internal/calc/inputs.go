package calc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Inputs is an insertion-ordered mapping from metric identifier to the value
// the calculator resolved for it. Keys are caller-defined; there is no fixed
// schema because components vary per rule set.
type Inputs struct {
	keys   []string
	values map[string]any
}

// NewInputs builds Inputs from alternating key, value arguments.
// Panics if a key is not a string or the argument count is odd.
func NewInputs(kv ...any) Inputs {
	if len(kv)%2 != 0 {
		panic("calc.NewInputs: odd number of arguments")
	}
	var in Inputs
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("calc.NewInputs: key %v is %T, not string", kv[i], kv[i]))
		}
		in.Set(key, kv[i+1])
	}
	return in
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (in *Inputs) Set(key string, value any) {
	if in.values == nil {
		in.values = make(map[string]any)
	}
	if _, exists := in.values[key]; !exists {
		in.keys = append(in.keys, key)
	}
	in.values[key] = value
}

// Get returns the value stored under key.
func (in Inputs) Get(key string) (any, bool) {
	v, ok := in.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (in Inputs) Keys() []string {
	out := make([]string, len(in.keys))
	copy(out, in.keys)
	return out
}

// Len returns the number of keys.
func (in Inputs) Len() int {
	return len(in.keys)
}

// Missing returns the keys whose resolved value is nil, in insertion order.
func (in Inputs) Missing() []string {
	var out []string
	for _, k := range in.keys {
		if in.values[k] == nil {
			out = append(out, k)
		}
	}
	return out
}

// MarshalJSON writes the mapping as a JSON object in insertion order.
func (in Inputs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range in.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(in.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal input %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving key order.
func (in *Inputs) UnmarshalJSON(data []byte) error {
	*in = Inputs{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("unmarshal inputs: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("unmarshal inputs: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("unmarshal inputs: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unmarshal inputs: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("unmarshal input %q: %w", key, err)
		}
		in.Set(key, v)
	}
	return nil
}

// UnmarshalYAML reads a YAML mapping, preserving key order.
func (in *Inputs) UnmarshalYAML(node *yaml.Node) error {
	*in = Inputs{}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: inputs must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var v any
		if err := valNode.Decode(&v); err != nil {
			return fmt.Errorf("line %d: input %q: %w", valNode.Line, keyNode.Value, err)
		}
		in.Set(keyNode.Value, v)
	}
	return nil
}
