package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// greeterWasm is a minimal guest with one page of memory holding "Hello".
// It imports output_set and error_set and exports:
//
//	hello: output_set(0, 5); return 0
//	fail:  error_set(0, 5);  return 1
var greeterWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x0a, 0x02, 0x60,
	0x02, 0x7f, 0x7e, 0x00, 0x60, 0x00, 0x01, 0x7f, 0x02, 0x3a, 0x02, 0x0f,
	0x65, 0x78, 0x74, 0x69, 0x73, 0x6d, 0x3a, 0x68, 0x6f, 0x73, 0x74, 0x2f,
	0x65, 0x6e, 0x76, 0x0a, 0x6f, 0x75, 0x74, 0x70, 0x75, 0x74, 0x5f, 0x73,
	0x65, 0x74, 0x00, 0x00, 0x0f, 0x65, 0x78, 0x74, 0x69, 0x73, 0x6d, 0x3a,
	0x68, 0x6f, 0x73, 0x74, 0x2f, 0x65, 0x6e, 0x76, 0x09, 0x65, 0x72, 0x72,
	0x6f, 0x72, 0x5f, 0x73, 0x65, 0x74, 0x00, 0x00, 0x03, 0x03, 0x02, 0x01,
	0x01, 0x05, 0x03, 0x01, 0x00, 0x01, 0x07, 0x19, 0x03, 0x05, 0x68, 0x65,
	0x6c, 0x6c, 0x6f, 0x00, 0x02, 0x04, 0x66, 0x61, 0x69, 0x6c, 0x00, 0x03,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x0a, 0x17, 0x02,
	0x0a, 0x00, 0x41, 0x00, 0x42, 0x05, 0x10, 0x00, 0x41, 0x00, 0x0b, 0x0a,
	0x00, 0x41, 0x00, 0x42, 0x05, 0x10, 0x01, 0x41, 0x01, 0x0b, 0x0b, 0x0b,
	0x01, 0x00, 0x41, 0x00, 0x0b, 0x05, 0x48, 0x65, 0x6c, 0x6c, 0x6f,
}

func newGreeter(t *testing.T, opts ...Option) *Plugin {
	t.Helper()
	ctx := context.Background()
	p, err := NewPlugin(ctx, greeterWasm, append(opts, WithLogger(quietLogger()))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })
	return p
}

func TestPlugin_Call(t *testing.T) {
	p := newGreeter(t, WithName("greeter"))

	code, output, err := p.Call(context.Background(), "hello", []byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, int32(0), code)
	assert.Equal(t, "Hello", string(output))
	assert.Equal(t, "greeter", p.Session().Name())
}

func TestPlugin_CallFailure(t *testing.T) {
	p := newGreeter(t)

	code, _, err := p.Call(context.Background(), "fail", nil)
	assert.Equal(t, int32(1), code)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "fail", callErr.Function)
	assert.Equal(t, "Hello", callErr.Message)
	assert.EqualError(t, err, "plugin function fail failed with code 1: Hello")

	// Error state does not leak into the next call.
	_, _, err = p.Call(context.Background(), "hello", nil)
	assert.NoError(t, err)
}

func TestPlugin_FunctionNotFound(t *testing.T) {
	p := newGreeter(t)

	assert.True(t, p.FunctionExists("hello"))
	assert.False(t, p.FunctionExists("missing"))

	_, _, err := p.Call(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrFunctionNotFound)
}

func TestNewPlugin_InvalidModule(t *testing.T) {
	_, err := NewPlugin(context.Background(), []byte("not wasm"), WithLogger(quietLogger()))
	assert.ErrorContains(t, err, "failed to compile module")
}
