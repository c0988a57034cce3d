package host

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Session is the state behind one plugin instance: host blocks, variables,
// configuration and the buffers exchanged with the guest during a call.
//
// A Session is not safe for concurrent use. The guest runs one exported
// function at a time and every import executes on that call's goroutine.
type Session struct {
	cfg      config
	kernel   *kernel
	vars     map[string][]byte
	statuses map[uint64]int32
	client   *http.Client
	logger   *slog.Logger

	function string
	input    []byte
	output   []byte
	errMsg   []byte
	hasError bool
}

// NewSession creates a Session with the given options.
func NewSession(opts ...Option) *Session {
	cfg := newConfig(opts)
	return &Session{
		cfg:      cfg,
		kernel:   newKernel(cfg.maxMemoryBytes),
		vars:     make(map[string][]byte),
		statuses: make(map[uint64]int32),
		client:   createHTTPClient(cfg),
		logger:   cfg.logger.With(slog.String("plugin", cfg.name)),
	}
}

// Name returns the plugin name.
func (s *Session) Name() string {
	return s.cfg.name
}

// Reset prepares the session for a call to function with the given input.
// Output and error buffers are cleared; variables and live blocks are kept.
func (s *Session) Reset(function string, input []byte) {
	s.function = function
	s.input = append([]byte(nil), input...)
	s.output = nil
	s.errMsg = nil
	s.hasError = false
}

// Alloc reserves a zeroed host block of n bytes. Returns 0 when the memory
// budget is exhausted. A zero-length block still gets a valid offset.
func (s *Session) Alloc(n uint64) uint64 {
	offset := s.kernel.alloc(n)
	if offset == 0 {
		s.logger.Warn("host memory budget exhausted", "requested", n, "limit", s.cfg.maxMemoryBytes)
	}
	return offset
}

// Free releases a block. Unknown offsets are ignored.
func (s *Session) Free(offset uint64) {
	if s.kernel.free(offset) {
		delete(s.statuses, offset)
	}
}

// Length returns the size of a block, or 0 for unknown offsets.
func (s *Session) Length(offset uint64) uint64 {
	return s.kernel.length(offset)
}

// Store copies src into the block at offset starting at rel.
func (s *Session) Store(offset, rel uint64, src []byte) error {
	dst, err := s.kernel.slice(offset, rel, uint64(len(src)))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Load copies len(dst) bytes of the block at offset starting at rel into dst.
func (s *Session) Load(offset, rel uint64, dst []byte) error {
	src, err := s.kernel.slice(offset, rel, uint64(len(dst)))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Block returns a copy of a block's contents.
func (s *Session) Block(offset uint64) ([]byte, error) {
	b, err := s.kernel.slice(offset, 0, s.kernel.length(offset))
	if err != nil {
		return nil, err
	}
	return append([]byte{}, b...), nil
}

// LiveBlocks returns the number of blocks that have not been freed.
func (s *Session) LiveBlocks() int {
	return len(s.kernel.blocks)
}

// InputLength returns the size of the current call input.
func (s *Session) InputLength() uint64 {
	return uint64(len(s.input))
}

// InputLoad copies len(dst) input bytes starting at rel into dst.
func (s *Session) InputLoad(rel uint64, dst []byte) error {
	src, err := window(s.input, rel, uint64(len(dst)))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// SetOutput replaces the call output.
func (s *Session) SetOutput(b []byte) {
	s.output = append([]byte(nil), b...)
}

// Output returns the output set by the guest during the last call.
func (s *Session) Output() []byte {
	return s.output
}

// SetError records the error message for the current call.
func (s *Session) SetError(b []byte) {
	s.errMsg = append([]byte(nil), b...)
	s.hasError = true
}

// ErrorMessage returns the error message set during the last call, if any.
func (s *Session) ErrorMessage() (string, bool) {
	return string(s.errMsg), s.hasError
}

// VarGet copies a variable into a new block and returns its offset.
// Returns 0 if the variable is not set.
func (s *Session) VarGet(name string) uint64 {
	v, ok := s.vars[name]
	if !ok {
		return 0
	}
	return s.allocBytes("var", name, v)
}

// VarSet stores a copy of value under name. An empty value is stored as is.
func (s *Session) VarSet(name string, value []byte) error {
	if len(value) > s.cfg.maxVarBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrVarTooLarge, name, len(value), s.cfg.maxVarBytes)
	}
	s.vars[name] = append([]byte{}, value...)
	return nil
}

// Var returns a variable as seen by the host.
func (s *Session) Var(name string) ([]byte, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// DeleteVar removes a variable.
func (s *Session) DeleteVar(name string) {
	delete(s.vars, name)
}

// ConfigGet copies a config value into a new block and returns its offset.
// Returns 0 if the key is not configured.
func (s *Session) ConfigGet(key string) uint64 {
	v, ok := s.cfg.config[key]
	if !ok {
		return 0
	}
	return s.allocBytes("config", key, []byte(v))
}

// allocBytes copies data into a new block. An exhausted budget is logged;
// the guest sees it as an absent value.
func (s *Session) allocBytes(kind, name string, data []byte) uint64 {
	offset := s.kernel.allocBytes(data)
	if offset == 0 {
		s.logger.Warn("host memory budget exhausted", "requested", len(data), "limit", s.cfg.maxMemoryBytes, kind, name)
	}
	return offset
}

// Log emits a guest log line.
func (s *Session) Log(ctx context.Context, level slog.Level, msg string) {
	s.logger.Log(ctx, level, msg, slog.String("function", s.function))
}

// HTTPStatusCode returns the HTTP status recorded for a response block,
// or -1 if the offset is not a live response.
func (s *Session) HTTPStatusCode(offset uint64) int32 {
	code, ok := s.statuses[offset]
	if !ok {
		return -1
	}
	return code
}
