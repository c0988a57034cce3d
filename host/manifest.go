package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

// Manifest describes a plugin and the capabilities the host grants it.
//
//	name: hello
//	wasm: hello.wasm
//	config:
//	  greeting: Howdy
//	allowed_hosts:
//	  - "*.example.com"
//	timeout_ms: 5000
type Manifest struct {
	Config       map[string]string `yaml:"config,omitempty" json:"config,omitempty" jsonschema:"description=Values served by config_get"`
	Name         string            `yaml:"name" json:"name" validate:"required" jsonschema:"description=Plugin name used in logs"`
	Wasm         string            `yaml:"wasm" json:"wasm" validate:"required" jsonschema:"description=Path to the module relative to the manifest"`
	AllowedHosts []string          `yaml:"allowed_hosts,omitempty" json:"allowed_hosts,omitempty" validate:"dive,required" jsonschema:"description=Hosts reachable over HTTP; * allows any host"`
	HTTP         HTTPManifest      `yaml:"http,omitempty" json:"http,omitempty"`
	Memory       MemoryManifest    `yaml:"memory,omitempty" json:"memory,omitempty"`
	TimeoutMs    int               `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty" validate:"gte=0" jsonschema:"description=Per-call timeout in milliseconds; 0 disables it"`

	dir string
}

// HTTPManifest configures the HTTP primitive.
type HTTPManifest struct {
	TimeoutMs        int   `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty" validate:"gte=0"`
	MaxResponseBytes int64 `yaml:"max_response_bytes,omitempty" json:"max_response_bytes,omitempty" validate:"gte=0"`
	SSRFProtection   bool  `yaml:"ssrf_protection,omitempty" json:"ssrf_protection,omitempty"`
	AllowPrivate     bool  `yaml:"allow_private,omitempty" json:"allow_private,omitempty"`
}

// MemoryManifest configures host memory limits.
type MemoryManifest struct {
	MaxBytes    int `yaml:"max_bytes,omitempty" json:"max_bytes,omitempty" validate:"gte=0"`
	MaxVarBytes int `yaml:"max_var_bytes,omitempty" json:"max_var_bytes,omitempty" validate:"gte=0"`
}

// ParseManifest decodes and validates a YAML manifest. Unknown fields are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}
	return &m, nil
}

// LoadManifest reads a manifest from path. A relative wasm path is resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// WasmPath returns the module path resolved against the manifest directory.
func (m *Manifest) WasmPath() string {
	if filepath.IsAbs(m.Wasm) || m.dir == "" {
		return m.Wasm
	}
	return filepath.Join(m.dir, m.Wasm)
}

// Options converts the manifest into host options.
func (m *Manifest) Options() []Option {
	opts := []Option{
		WithName(m.Name),
		WithConfig(m.Config),
		WithAllowedHosts(m.AllowedHosts...),
		WithCallTimeout(time.Duration(m.TimeoutMs) * time.Millisecond),
		WithHTTPTimeout(time.Duration(m.HTTP.TimeoutMs) * time.Millisecond),
		WithMaxHTTPResponseBytes(m.HTTP.MaxResponseBytes),
		WithMaxMemoryBytes(m.Memory.MaxBytes),
		WithMaxVarBytes(m.Memory.MaxVarBytes),
	}
	if m.HTTP.SSRFProtection {
		opts = append(opts, WithSSRFProtection(m.HTTP.AllowPrivate))
	}
	return opts
}

// NewPluginFromManifest loads the manifest's module and instantiates it.
// Options in extra are applied after the manifest's own.
func NewPluginFromManifest(ctx context.Context, m *Manifest, extra ...Option) (*Plugin, error) {
	wasm, err := os.ReadFile(m.WasmPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return NewPlugin(ctx, wasm, append(m.Options(), extra...)...)
}

// ManifestSchema returns the JSON Schema of the manifest format.
func ManifestSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Manifest{})

	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return b, nil
}
