// Package doc wraps decoded JSON in a Node value whose accessors never panic.
// Lookups on the wrong shape yield a missing Node instead of an error, so
// extraction code can walk deeply nested payloads without type assertions.
package doc

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind is the variant held by a Node.
type Kind int

const (
	Missing Kind = iota
	Null
	Object
	Array
	String
	Number
	Bool
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Object:
		return "object"
	case Array:
		return "array"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	}
	return "missing"
}

// Node is one value in a decoded JSON tree.
type Node struct {
	v       any
	present bool
}

// Parse decodes raw JSON into a Node. Numbers keep their textual form so
// large integers survive.
func Parse(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Node{}, err
	}
	return Node{v: v, present: true}, nil
}

// Wrap turns an already-decoded value into a Node.
func Wrap(v any) Node {
	return Node{v: v, present: true}
}

func (n Node) Kind() Kind {
	if !n.present {
		return Missing
	}
	switch n.v.(type) {
	case nil:
		return Null
	case map[string]any:
		return Object
	case []any:
		return Array
	case string:
		return String
	case json.Number, float64, int:
		return Number
	case bool:
		return Bool
	}
	return Missing
}

// Exists reports whether the node was found and is not JSON null.
func (n Node) Exists() bool {
	k := n.Kind()
	return k != Missing && k != Null
}

// Get returns the member key of an object node.
func (n Node) Get(key string) Node {
	m, ok := n.v.(map[string]any)
	if !ok {
		return Node{}
	}
	v, ok := m[key]
	if !ok {
		return Node{}
	}
	return Node{v: v, present: true}
}

// Path follows a chain of object keys.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if !cur.present {
			return cur
		}
	}
	return cur
}

// Index returns element i of an array node.
func (n Node) Index(i int) Node {
	arr, ok := n.v.([]any)
	if !ok || i < 0 || i >= len(arr) {
		return Node{}
	}
	return Node{v: arr[i], present: true}
}

// List returns the elements of an array node, or nil for any other kind.
func (n Node) List() []Node {
	arr, ok := n.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Node, len(arr))
	for i, v := range arr {
		out[i] = Node{v: v, present: true}
	}
	return out
}

// Keys returns the member names of an object node.
func (n Node) Keys() []string {
	m, ok := n.v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// Str returns the string value of a string node.
func (n Node) Str() (string, bool) {
	s, ok := n.v.(string)
	return s, ok
}

// Text returns the trimmed string value, or "" when the node is not a string.
func (n Node) Text() string {
	s, _ := n.Str()
	return strings.TrimSpace(s)
}

// OptText is Text as an optional value: nil for missing, non-string, or blank.
func (n Node) OptText() *string {
	s := n.Text()
	if s == "" {
		return nil
	}
	return &s
}

// Float returns a number node (or a numeric string) as float64.
func (n Node) Float() (float64, bool) {
	switch v := n.v.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns a number node (or a numeric string) as int. Fractional
// values are truncated.
func (n Node) Int() (int, bool) {
	switch v := n.v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		f, err := v.Float64()
		return int(f), err == nil
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	}
	return 0, false
}

// OptInt is Int as an optional value.
func (n Node) OptInt() *int {
	i, ok := n.Int()
	if !ok {
		return nil
	}
	return &i
}

// OptFloat is Float as an optional value.
func (n Node) OptFloat() *float64 {
	f, ok := n.Float()
	if !ok {
		return nil
	}
	return &f
}

// Bool returns the value of a bool node.
func (n Node) Bool() (bool, bool) {
	b, ok := n.v.(bool)
	return b, ok
}

// BoolOr returns the bool value or fallback.
func (n Node) BoolOr(fallback bool) bool {
	if b, ok := n.Bool(); ok {
		return b
	}
	return fallback
}

// Strings collects the non-blank strings of an array node. A lone string
// node yields a one-element slice.
func (n Node) Strings() []string {
	if s := n.Text(); s != "" {
		return []string{s}
	}
	var out []string
	for _, item := range n.List() {
		if s := item.Text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
