package host_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/wasmpdk/pdk-go/host"
)

type ManifestSuite struct {
	suite.Suite
}

func (s *ManifestSuite) TestValidManifest() {
	yaml := `
name: hello
wasm: hello.wasm
config:
  greeting: Howdy
allowed_hosts:
  - "*.example.com"
timeout_ms: 5000
http:
  timeout_ms: 1000
  max_response_bytes: 2048
memory:
  max_var_bytes: 64
`
	m, err := host.ParseManifest([]byte(yaml))
	s.Require().NoError(err)
	s.Equal("hello", m.Name)
	s.Equal("hello.wasm", m.WasmPath())
	s.Equal(map[string]string{"greeting": "Howdy"}, m.Config)
	s.Equal([]string{"*.example.com"}, m.AllowedHosts)
	s.Equal(5000, m.TimeoutMs)
	s.Equal(int64(2048), m.HTTP.MaxResponseBytes)

	session := host.NewSession(m.Options()...)
	s.Equal("hello", session.Name())
	s.NotZero(session.ConfigGet("greeting"))
	s.ErrorIs(session.VarSet("v", make([]byte, 65)), host.ErrVarTooLarge)
}

func (s *ManifestSuite) TestRejectsInvalid() {
	tests := map[string]string{
		"empty":          ``,
		"missing name":   "wasm: a.wasm\n",
		"missing wasm":   "name: a\n",
		"unknown field":  "name: a\nwasm: a.wasm\ncapabilities: []\n",
		"negative limit": "name: a\nwasm: a.wasm\ntimeout_ms: -1\n",
		"empty host":     "name: a\nwasm: a.wasm\nallowed_hosts: [\"\"]\n",
	}
	for name, doc := range tests {
		s.Run(name, func() {
			_, err := host.ParseManifest([]byte(doc))
			s.Error(err)
		})
	}
}

func (s *ManifestSuite) TestLoadManifestResolvesWasm() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "plugin.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("name: a\nwasm: build/a.wasm\n"), 0o600))

	m, err := host.LoadManifest(path)
	s.Require().NoError(err)
	s.Equal(filepath.Join(dir, "build", "a.wasm"), m.WasmPath())

	_, err = host.LoadManifest(filepath.Join(dir, "missing.yaml"))
	s.ErrorContains(err, "failed to read manifest")
}

func (s *ManifestSuite) TestManifestSchema() {
	schema, err := host.ManifestSchema()
	s.Require().NoError(err)
	s.Contains(string(schema), `"allowed_hosts"`)
	s.Contains(string(schema), `"max_var_bytes"`)
	s.Contains(string(schema), "Values served by config_get")
}

func (s *ManifestSuite) TestOptionsDefaults() {
	m := &host.Manifest{Name: "a", Wasm: "a.wasm"}
	// Zero values leave the defaults in place.
	session := host.NewSession(m.Options()...)
	s.Zero(session.ConfigGet("anything"))
	s.NoError(session.VarSet("v", make([]byte, host.DefaultMaxVarBytes)))
}

func TestManifestSuite(t *testing.T) {
	suite.Run(t, new(ManifestSuite))
}
