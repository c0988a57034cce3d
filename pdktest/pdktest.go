// Package pdktest runs guest code natively against the reference host.
//
// A Host implements abi.Host on top of a host.Session, so plugin logic can be
// exercised with go test without compiling to WebAssembly:
//
//	h := pdktest.NewHost(pdktest.WithConfig(map[string]string{"greeting": "Hi"}))
//	pdktest.Install(t, h)
//	res := h.Call([]byte(`{"name":"Ada"}`), hello)
//	assert.Equal(t, int32(0), res.Code)
//
// ABI violations panic with a *host.TrapError, the native equivalent of a trap.
package pdktest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	pdk "github.com/wasmpdk/pdk-go"
	"github.com/wasmpdk/pdk-go/abi"
	"github.com/wasmpdk/pdk-go/host"
)

// LogEntry is a line logged by the guest.
type LogEntry struct {
	Message string
	Level   abi.Level
}

// Result is the outcome of one call.
type Result struct {
	Output   []byte
	Error    string
	Code     int32
	HasError bool
}

// Option configures a Host.
type Option func(*hostConfig)

type hostConfig struct {
	vars        map[string][]byte
	handler     http.Handler
	hostOptions []host.Option
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		vars:        map[string][]byte{},
		hostOptions: []host.Option{host.WithName("pdktest"), host.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))},
	}
}

// WithConfig sets the plugin configuration.
func WithConfig(values map[string]string) Option {
	return func(c *hostConfig) {
		c.hostOptions = append(c.hostOptions, host.WithConfig(values))
	}
}

// WithVar presets a variable.
func WithVar(name string, value []byte) Option {
	return func(c *hostConfig) {
		c.vars[name] = value
	}
}

// WithHTTPHandler serves the guest's HTTP requests with h, in process.
// Unless WithHostOptions sets an allow list, every host is allowed.
func WithHTTPHandler(h http.Handler) Option {
	return func(c *hostConfig) {
		c.handler = h
	}
}

// WithHostOptions passes options straight to the underlying host.Session.
func WithHostOptions(opts ...host.Option) Option {
	return func(c *hostConfig) {
		c.hostOptions = append(c.hostOptions, opts...)
	}
}

// Host is an in-process abi.Host. It is not safe for concurrent use.
type Host struct {
	session *host.Session
	ctx     context.Context
	logs    []LogEntry
}

// NewHost creates a Host.
func NewHost(opts ...Option) *Host {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	hostOpts := cfg.hostOptions
	if cfg.handler != nil {
		hostOpts = append([]host.Option{host.WithAllowedHosts("*")}, hostOpts...)
		hostOpts = append(hostOpts, host.WithTransport(handlerTransport{handler: cfg.handler}))
	}

	session := host.NewSession(hostOpts...)
	for name, value := range cfg.vars {
		if err := session.VarSet(name, value); err != nil {
			panic(err)
		}
	}
	return &Host{session: session, ctx: context.Background()}
}

// Install makes h the host used by package pdk until the test ends.
func Install(tb testing.TB, h *Host) {
	tb.Helper()
	restore := pdk.SetHost(h)
	tb.Cleanup(restore)
}

// Call runs fn as an exported function invoked with input.
func (h *Host) Call(input []byte, fn func() int32) Result {
	h.session.Reset("test", input)
	code := fn()
	msg, hasError := h.session.ErrorMessage()
	return Result{
		Code:     code,
		Output:   h.session.Output(),
		Error:    msg,
		HasError: hasError,
	}
}

// Session returns the underlying reference host state.
func (h *Host) Session() *host.Session {
	return h.session
}

// Logs returns the lines logged by the guest so far.
func (h *Host) Logs() []LogEntry {
	return h.logs
}

// LiveBlocks returns the number of host blocks the guest has not freed.
func (h *Host) LiveBlocks() int {
	return h.session.LiveBlocks()
}

func trap(name string, err error) {
	if err != nil {
		panic(&host.TrapError{Import: name, Err: err})
	}
}

// Alloc reserves a block in the session, returning 0 over the memory budget.
func (h *Host) Alloc(n uint64) uint64 {
	return h.session.Alloc(n)
}

// Free releases a block.
func (h *Host) Free(offset uint64) {
	h.session.Free(offset)
}

// Length returns the size of a block, or 0 if unknown.
func (h *Host) Length(offset uint64) uint64 {
	return h.session.Length(offset)
}

// Store copies src into a block. Out-of-bounds writes panic with a *host.TrapError.
func (h *Host) Store(offset, rel uint64, src []byte) {
	trap("store", h.session.Store(offset, rel, src))
}

// Load copies from a block into dst. Out-of-bounds reads panic with a *host.TrapError.
func (h *Host) Load(offset, rel uint64, dst []byte) {
	trap("load", h.session.Load(offset, rel, dst))
}

// InputLength returns the size of the input passed to Call.
func (h *Host) InputLength() uint64 {
	return h.session.InputLength()
}

// InputLoad copies input bytes starting at rel into dst.
func (h *Host) InputLoad(rel uint64, dst []byte) {
	trap("input_load", h.session.InputLoad(rel, dst))
}

// OutputSet records the call output.
func (h *Host) OutputSet(src []byte) {
	h.session.SetOutput(src)
}

// ErrorSet records the call error message.
func (h *Host) ErrorSet(src []byte) {
	h.session.SetError(src)
}

// VarGet copies a variable into a new block, returning 0 if it is not set.
func (h *Host) VarGet(name []byte) uint64 {
	return h.session.VarGet(string(name))
}

// VarSet stores a variable. Values over the size limit panic with a *host.TrapError.
func (h *Host) VarSet(name, value []byte) {
	trap("var_set", h.session.VarSet(string(name), value))
}

// ConfigGet copies a config value into a new block, returning 0 if it is not set.
func (h *Host) ConfigGet(key []byte) uint64 {
	return h.session.ConfigGet(string(key))
}

// Log records the entry for Logs and forwards it to the session logger.
func (h *Host) Log(level abi.Level, msg []byte) {
	h.logs = append(h.logs, LogEntry{Level: level, Message: string(msg)})

	slogLevel := slog.LevelInfo
	switch level {
	case abi.LevelDebug:
		slogLevel = slog.LevelDebug
	case abi.LevelWarn:
		slogLevel = slog.LevelWarn
	case abi.LevelError:
		slogLevel = slog.LevelError
	}
	h.session.Log(h.ctx, slogLevel, string(msg))
}

// HTTPRequest performs the request described by the request:* variables.
func (h *Host) HTTPRequest(_ uint64) (int32, uint64) {
	return h.session.HTTPRequest(h.ctx)
}

// HTTPStatusCode returns the status recorded for a response block, or -1.
func (h *Host) HTTPStatusCode(response uint64) int32 {
	return h.session.HTTPStatusCode(response)
}

// handlerTransport serves requests with an http.Handler without a network.
type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	t.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

var _ abi.Host = (*Host)(nil)
