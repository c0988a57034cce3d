package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdata/greeter.wasm exports "hello", which outputs "Hello", and "fail",
// which reports "Hello" as an error and returns 1.

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Wasm(t *testing.T) {
	code, stdout, _ := runCLI("-wasm", "testdata/greeter.wasm", "-func", "hello")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Hello\n", stdout)
}

func TestRun_PluginError(t *testing.T) {
	code, stdout, stderr := runCLI("-wasm", "testdata/greeter.wasm", "-func", "fail")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Plugin call failed")
	assert.Contains(t, stderr, "plugin function fail failed with code 1: Hello")
}

func TestRun_Manifest(t *testing.T) {
	wasm, err := os.ReadFile("testdata/greeter.wasm")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeter.wasm"), wasm, 0o600))
	manifest := filepath.Join(dir, "plugin.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("name: greeter\nwasm: greeter.wasm\n"), 0o600))

	code, stdout, _ := runCLI("-manifest", manifest, "-config", "greeting=Howdy")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Hello\n", stdout)
}

func TestRun_Schema(t *testing.T) {
	code, stdout, _ := runCLI("-schema")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, `"allowed_hosts"`)
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		want string
		args []string
	}{
		{name: "no module", args: nil, want: "exactly one of -manifest or -wasm is required"},
		{name: "both", args: []string{"-wasm", "a.wasm", "-manifest", "a.yaml"}, want: "exactly one of"},
		{name: "bad config", args: []string{"-wasm", "a.wasm", "-config", "novalue"}, want: "expected key=value"},
		{name: "bad level", args: []string{"-wasm", "a.wasm", "-log-level", "loud"}, want: "log-level"},
		{name: "extra args", args: []string{"-wasm", "a.wasm", "extra"}, want: "unexpected arguments: extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_MissingModule(t *testing.T) {
	code, _, stderr := runCLI("-wasm", filepath.Join(t.TempDir(), "missing.wasm"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to read module")
}

func TestKeyValues(t *testing.T) {
	kv := keyValues{}
	require.NoError(t, kv.Set("a=1"))
	require.NoError(t, kv.Set("b=x=y"))
	require.NoError(t, kv.Set("empty="))
	assert.Equal(t, keyValues{"a": "1", "b": "x=y", "empty": ""}, kv)
	assert.Error(t, kv.Set("=v"))
}
