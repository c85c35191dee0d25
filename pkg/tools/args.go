package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Kind is the dynamic type of an argument Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one loosely typed argument. The zero Value is absent, so a lookup
// of a missing key in Arguments yields KindAbsent.
type Value struct {
	kind     Kind
	str      string
	num      float64
	integer  int64
	integral bool
	boolean  bool
	list     []Value
	object   Arguments
}

// Arguments maps argument names to values for a single call.
type Arguments map[string]Value

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func BoolValue(b bool) Value { return Value{kind: KindBool, boolean: b} }

func NullValue() Value { return Value{kind: KindNull} }

func IntValue(i int64) Value {
	return Value{kind: KindNumber, num: float64(i), integer: i, integral: true}
}

// NumberValue wraps f. Whole finite values are also readable as integers.
func NumberValue(f float64) Value {
	v := Value{kind: KindNumber, num: f}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		v.integer = int64(f)
		v.integral = true
	}
	return v
}

func ListValue(items ...Value) Value { return Value{kind: KindList, list: items} }

func ObjectValue(args Arguments) Value { return Value{kind: KindObject, object: args} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber accepts both integral and fractional numbers.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsInt succeeds only for integral numbers.
func (v Value) AsInt() (int64, bool) {
	return v.integer, v.kind == KindNumber && v.integral
}

func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

func (v Value) AsObject() (Arguments, bool) {
	return v.object, v.kind == KindObject
}

// Interface converts v back to plain Go values as produced by encoding/json.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.integral {
			return v.integer
		}
		return v.num
	case KindBool:
		return v.boolean
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.object.Map()
	default:
		return nil
	}
}

// Map converts the arguments back to a plain map.
func (a Arguments) Map() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v.Interface()
	}
	return out
}

// DecodeArguments parses the raw JSON arguments of a call. Empty input and
// JSON null decode to an empty mapping; any other non-object is an error.
func DecodeArguments(raw json.RawMessage) (Arguments, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Arguments{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return FromMap(m), nil
}

// FromMap converts a decoded JSON object into Arguments.
func FromMap(m map[string]any) Arguments {
	args := make(Arguments, len(m))
	for k, v := range m {
		args[k] = fromAny(v)
	}
	return args
}

func fromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return IntValue(i)
		}
		f, err := x.Float64()
		if err != nil {
			return StringValue(x.String())
		}
		return NumberValue(f)
	case float64:
		return NumberValue(x)
	case float32:
		return NumberValue(float64(x))
	case int:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = fromAny(item)
		}
		return ListValue(items...)
	case []string:
		items := make([]Value, len(x))
		for i, s := range x {
			items[i] = StringValue(s)
		}
		return ListValue(items...)
	case map[string]any:
		return ObjectValue(FromMap(x))
	default:
		return StringValue(fmt.Sprint(x))
	}
}
