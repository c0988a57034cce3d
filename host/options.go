package host

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultMaxMemoryBytes caps the total size of live host blocks (100 MB).
const DefaultMaxMemoryBytes = 100 * 1024 * 1024

// DefaultMaxVarBytes caps a single guest-written variable (1 MB).
const DefaultMaxVarBytes = 1 * 1024 * 1024

// DefaultMaxHTTPResponseBytes caps a response body read by the HTTP primitive (10 MB).
const DefaultMaxHTTPResponseBytes = 10 * 1024 * 1024

// Option is a functional option for configuring a Session or Plugin.
type Option func(*config)

type config struct {
	logger               *slog.Logger
	transport            http.RoundTripper
	config               map[string]string
	name                 string
	allowedHosts         []string
	httpTimeout          time.Duration
	callTimeout          time.Duration
	maxHTTPResponseBytes int64
	maxMemoryBytes       int
	maxVarBytes          int
	ssrfProtection       bool
	allowPrivate         bool
}

// defaultConfig returns the default configuration. HTTP is denied until
// WithAllowedHosts names at least one host.
func defaultConfig() config {
	return config{
		name:                 "plugin",
		config:               map[string]string{},
		httpTimeout:          30 * time.Second,
		maxHTTPResponseBytes: DefaultMaxHTTPResponseBytes,
		maxMemoryBytes:       DefaultMaxMemoryBytes,
		maxVarBytes:          DefaultMaxVarBytes,
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// WithName sets the plugin name used as the wazero module name and in logs.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithConfig sets the key/value pairs served by config_get.
func WithConfig(values map[string]string) Option {
	return func(c *config) {
		c.config = make(map[string]string, len(values))
		for k, v := range values {
			c.config[k] = v
		}
	}
}

// WithAllowedHosts sets the hosts the HTTP primitive may reach.
// Entries are exact hostnames, "*.example.com" wildcards or "*" for any host.
func WithAllowedHosts(hosts ...string) Option {
	return func(c *config) {
		c.allowedHosts = append([]string(nil), hosts...)
	}
}

// WithHTTPTimeout sets the timeout for a single HTTP request.
// A zero or negative duration is ignored.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.httpTimeout = d
		}
	}
}

// WithMaxHTTPResponseBytes caps the response body size. Larger bodies are truncated.
func WithMaxHTTPResponseBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxHTTPResponseBytes = n
		}
	}
}

// WithMaxMemoryBytes caps the total size of live host blocks. Once the budget
// is exhausted alloc returns 0.
func WithMaxMemoryBytes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxMemoryBytes = n
		}
	}
}

// WithMaxVarBytes caps the size of a single variable written by the guest.
func WithMaxVarBytes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxVarBytes = n
		}
	}
}

// WithLogger sets the logger that receives guest log lines and host diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithTransport replaces the HTTP transport used by the HTTP primitive.
// Useful for injecting fakes during testing. With WithSSRFProtection the
// request address is still checked before rt runs, but rt does its own
// dialing, so the connection is not pinned to the checked address.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		c.transport = rt
	}
}

// WithSSRFProtection resolves each request host once, rejects private,
// loopback, link-local and multicast addresses (unless allowPrivate) and
// pins the connection to the validated address.
func WithSSRFProtection(allowPrivate bool) Option {
	return func(c *config) {
		c.ssrfProtection = true
		c.allowPrivate = allowPrivate
	}
}

// WithCallTimeout bounds each Plugin.Call. A timed out call closes the module.
func WithCallTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}
