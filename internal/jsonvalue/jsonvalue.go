// Package jsonvalue parses JSON into a tagged value tree.
package jsonvalue

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrSyntax is returned for input that is not a single JSON value.
var ErrSyntax = errors.New("jsonvalue: invalid JSON")

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one node of a parsed document. The zero Value is null.
type Value struct {
	fields map[string]Value
	str    string
	keys   []string
	items  []Value
	num    float64
	kind   Kind
	b      bool
}

// Parse parses data as exactly one JSON value surrounded by optional whitespace.
func Parse(data []byte) (Value, error) {
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return Value{}, fmt.Errorf("%w: trailing data at offset %d", ErrSyntax, end)
	}
	return build(raw, typ)
}

func build(raw []byte, typ jsonparser.ValueType) (Value, error) {
	switch typ {
	case jsonparser.Null:
		return Value{kind: Null}, nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return Value{kind: Bool, b: b}, nil

	case jsonparser.Number:
		n, err := jsonparser.ParseFloat(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bad number %q", ErrSyntax, raw)
		}
		return Value{kind: Number, num: n}, nil

	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return Value{kind: String, str: s}, nil

	case jsonparser.Array:
		v := Value{kind: Array}
		var itemErr error
		_, err := jsonparser.ArrayEach(raw, func(item []byte, typ jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			child, err := build(item, typ)
			if err != nil {
				itemErr = err
				return
			}
			v.items = append(v.items, child)
		})
		if err == nil {
			err = itemErr
		}
		if err != nil {
			return Value{}, wrapSyntax(err)
		}
		return v, nil

	case jsonparser.Object:
		v := Value{kind: Object, fields: map[string]Value{}}
		// ObjectEach hands over keys already unescaped.
		err := jsonparser.ObjectEach(raw, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
			name := string(key)
			child, err := build(value, typ)
			if err != nil {
				return err
			}
			if _, dup := v.fields[name]; !dup {
				v.keys = append(v.keys, name)
			}
			v.fields[name] = child
			return nil
		})
		if err != nil {
			return Value{}, wrapSyntax(err)
		}
		return v, nil
	}

	return Value{}, fmt.Errorf("%w: unexpected value %q", ErrSyntax, raw)
}

func wrapSyntax(err error) error {
	if errors.Is(err, ErrSyntax) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSyntax, err)
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.kind == Null
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == String
}

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == Number
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == Bool
}

// Get returns the member key of an object. Duplicate keys resolve to the last occurrence.
func (v Value) Get(key string) (Value, bool) {
	child, ok := v.fields[key]
	return child, ok
}

// Keys returns object member names in document order.
func (v Value) Keys() []string {
	return v.keys
}

// Index returns element i of an array.
func (v Value) Index(i int) (Value, bool) {
	if i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Len returns the number of array elements or object members.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.keys)
	default:
		return 0
	}
}
