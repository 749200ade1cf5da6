package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind enumerates the JSON value kinds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one of Null, Bool, Number, String, Array or *Object.
type Value interface {
	Kind() Kind
	json.Marshaler
	isValue()
}

type Null struct{}

type Bool bool

// Number keeps the literal it was parsed from so that 10 and 10.0 stay
// distinguishable when rendered back to text.
type Number struct {
	Float float64
	Raw   string
}

type String string

type Array []Value

// Object is a JSON object that remembers key insertion order.
type Object struct {
	keys   []string
	fields map[string]Value
}

func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Number) Kind() Kind  { return KindNumber }
func (String) Kind() Kind  { return KindString }
func (Array) Kind() Kind   { return KindArray }
func (*Object) Kind() Kind { return KindObject }

func (Null) isValue()    {}
func (Bool) isValue()    {}
func (Number) isValue()  {}
func (String) isValue()  {}
func (Array) isValue()   {}
func (*Object) isValue() {}

// NewNumber builds a Number from a float, rendering it in the shortest form.
func NewNumber(f float64) Number {
	return Number{Float: f, Raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Set stores a field. Re-setting an existing key keeps its original position.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

// Get returns the field stored under key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Object) Len() int {
	return len(o.keys)
}

func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (b Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.text()), nil
}

func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshal(item)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
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
		vb, err := marshal(o.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n Number) text() string {
	if n.Raw != "" {
		return n.Raw
	}
	return strconv.FormatFloat(n.Float, 'f', -1, 64)
}

func marshal(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return v.MarshalJSON()
}

// Stringify renders a value in its canonical text form: strings verbatim,
// numbers as their JSON literal, true/false/null, and containers as compact
// JSON. A nil Value renders as "null".
func Stringify(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		if x {
			return "true"
		}
		return "false"
	case Number:
		return x.text()
	case String:
		return string(x)
	case Array, *Object:
		b, err := marshal(x)
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ToAny converts a value to the plain Go shape produced by encoding/json.
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Number:
		return x.Float
	case String:
		return string(x)
	case Array:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToAny(item)
		}
		return out
	case *Object:
		out := make(map[string]any, x.Len())
		for _, k := range x.keys {
			out[k] = ToAny(x.fields[k])
		}
		return out
	default:
		return nil
	}
}

// FromAny converts a decoded Go value (as produced by encoding/json or
// yaml.v3) into a Value. Map keys are sorted since Go maps carry no order.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case float64:
		return NewNumber(x)
	case float32:
		return NewNumber(float64(x))
	case int:
		return Number{Float: float64(x), Raw: strconv.Itoa(x)}
	case int64:
		return Number{Float: float64(x), Raw: strconv.FormatInt(x, 10)}
	case int32:
		return Number{Float: float64(x), Raw: strconv.FormatInt(int64(x), 10)}
	case uint64:
		return Number{Float: float64(x), Raw: strconv.FormatUint(x, 10)}
	case json.Number:
		f, _ := x.Float64()
		return Number{Float: f, Raw: x.String()}
	case []any:
		out := make(Array, len(x))
		for i, item := range x {
			out[i] = FromAny(item)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, FromAny(x[k]))
		}
		return obj
	default:
		return String(fmt.Sprintf("%v", x))
	}
}
