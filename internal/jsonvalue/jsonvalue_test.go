package jsonvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		input string
		check func(t *testing.T, v Value)
		kind  Kind
	}{
		{input: "null", kind: Null, check: func(t *testing.T, v Value) { assert.True(t, v.IsNull()) }},
		{input: " true ", kind: Bool, check: func(t *testing.T, v Value) {
			b, ok := v.AsBool()
			assert.True(t, ok)
			assert.True(t, b)
		}},
		{input: "-12.5e1", kind: Number, check: func(t *testing.T, v Value) {
			n, ok := v.AsNumber()
			assert.True(t, ok)
			assert.InDelta(t, -125.0, n, 1e-9)
		}},
		{input: `"a\"bé"`, kind: String, check: func(t *testing.T, v Value) {
			s, ok := v.AsString()
			assert.True(t, ok)
			assert.Equal(t, `a"bé`, s)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			tt.check(t, v)
		})
	}
}

func TestParse_Object(t *testing.T) {
	v, err := Parse([]byte(`{"name":"Ada","age":36,"tags":["x","y"],"meta":{"name":"inner"},"name":"Grace"}`))
	require.NoError(t, err)
	require.Equal(t, Object, v.Kind())

	assert.Equal(t, []string{"name", "age", "tags", "meta"}, v.Keys())
	assert.Equal(t, 4, v.Len())

	name, ok := v.Get("name")
	require.True(t, ok)
	s, _ := name.AsString()
	assert.Equal(t, "Grace", s, "last duplicate wins")

	tags, ok := v.Get("tags")
	require.True(t, ok)
	assert.Equal(t, Array, tags.Kind())
	assert.Equal(t, 2, tags.Len())
	second, ok := tags.Index(1)
	require.True(t, ok)
	s, _ = second.AsString()
	assert.Equal(t, "y", s)
	_, ok = tags.Index(2)
	assert.False(t, ok)

	meta, _ := v.Get("meta")
	inner, _ := meta.Get("name")
	s, _ = inner.AsString()
	assert.Equal(t, "inner", s)

	_, ok = v.Get("missing")
	assert.False(t, ok)
}

func TestParse_Empty(t *testing.T) {
	v, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, Object, v.Kind())
	assert.Zero(t, v.Len())

	v, err = Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, Array, v.Kind())
	assert.Zero(t, v.Len())
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"hello",
		`{"name":"Ada"} trailing`,
		`{"name":"Ada"`,
		`"unterminated`,
		"12abc",
		`[1, nope]`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestValue_WrongKind(t *testing.T) {
	v, err := Parse([]byte(`42`))
	require.NoError(t, err)

	_, ok := v.AsString()
	assert.False(t, ok)
	_, ok = v.AsBool()
	assert.False(t, ok)
	_, ok = v.Get("x")
	assert.False(t, ok)
	assert.Zero(t, v.Len())
	assert.Nil(t, v.Keys())
	assert.Equal(t, "number", v.Kind().String())
}
