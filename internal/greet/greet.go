// Package greet holds the name extraction shared by the example plugins.
package greet

import (
	"bytes"

	"github.com/wasmpdk/pdk-go/internal/jsonvalue"
)

// DefaultName is used when the input names nobody.
const DefaultName = "World"

// DefaultPrefix is used when no greeting is configured.
const DefaultPrefix = "Hello"

var nameKey = []byte(`"name"`)

// Name returns the string "name" member of a JSON object input. Empty input
// yields DefaultName; any other input, including malformed JSON and objects
// without a string "name", is used verbatim.
func Name(input []byte) string {
	if len(input) == 0 {
		return DefaultName
	}
	v, err := jsonvalue.Parse(input)
	if err != nil || v.Kind() != jsonvalue.Object {
		return string(input)
	}
	if name, ok := v.Get("name"); ok {
		if s, ok := name.AsString(); ok {
			return s
		}
	}
	return string(input)
}

// ScanName extracts a name without a parser. Input is treated as a
// NUL-terminated string. If it is longer than two bytes, starts with '{' and
// contains "name", the name is the text between the first '"' after the
// first ':' following "name" and the next '"'. A missing boundary yields
// DefaultName. Anything else is returned verbatim.
//
// The scan ignores nesting, escapes and key order.
func ScanName(input []byte) string {
	if i := bytes.IndexByte(input, 0); i >= 0 {
		input = input[:i]
	}
	if len(input) == 0 {
		return DefaultName
	}
	if len(input) <= 2 || input[0] != '{' {
		return string(input)
	}

	at := bytes.Index(input, nameKey)
	if at < 0 {
		return string(input)
	}
	rest := input[at:]
	colon := bytes.IndexByte(rest, ':')
	if colon < 0 {
		return DefaultName
	}
	rest = rest[colon:]
	open := bytes.IndexByte(rest, '"')
	if open < 0 {
		return DefaultName
	}
	rest = rest[open+1:]
	end := bytes.IndexByte(rest, '"')
	if end < 0 {
		return DefaultName
	}
	return string(rest[:end])
}

// Greeting formats "<prefix>, <name>!".
func Greeting(prefix, name string) string {
	return prefix + ", " + name + "!"
}
