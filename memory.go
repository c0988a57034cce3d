package pdk

import (
	"encoding/json"
	"fmt"
)

// noCopy triggers go vet's copylocks check on types that embed it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Memory owns a block of host memory. The host tracks the block's length;
// Memory only remembers the offset. A Memory must be released exactly once,
// either by Free or by handing it to something that frees it.
type Memory struct {
	noCopy noCopy
	offset uint64
}

// Allocate reserves n bytes of host memory.
func Allocate(n uint64) (*Memory, error) {
	offset := current.Alloc(n)
	if offset == 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrAllocFailed, n)
	}
	return &Memory{offset: offset}, nil
}

// AllocateBytes reserves host memory holding a copy of b.
func AllocateBytes(b []byte) (*Memory, error) {
	m, err := Allocate(uint64(len(b)))
	if err != nil {
		return nil, err
	}
	if len(b) > 0 {
		current.Store(m.offset, 0, b)
	}
	return m, nil
}

// AllocateString reserves host memory holding s.
func AllocateString(s string) (*Memory, error) {
	return AllocateBytes([]byte(s))
}

// FindMemory adopts a block the host returned by offset. The caller owns the
// result. Offset 0 yields nil.
func FindMemory(offset uint64) *Memory {
	if offset == 0 {
		return nil
	}
	return &Memory{offset: offset}
}

// WithMemory allocates n bytes, runs fn and frees the block on every exit
// path, including panics.
func WithMemory(n uint64, fn func(*Memory) error) error {
	m, err := Allocate(n)
	if err != nil {
		return err
	}
	defer m.Free()
	return fn(m)
}

// Offset returns the host offset, or 0 once released.
func (m *Memory) Offset() uint64 {
	if m == nil {
		return 0
	}
	return m.offset
}

// Released reports whether the block was freed or moved away.
func (m *Memory) Released() bool {
	return m == nil || m.offset == 0
}

// Len asks the host for the block length. Returns 0 once released.
func (m *Memory) Len() uint64 {
	if m.Released() {
		return 0
	}
	return current.Length(m.offset)
}

// Store writes data at offset within the block. Bounds are checked by the host.
func (m *Memory) Store(data []byte, offset uint64) error {
	if m.Released() {
		return ErrMemoryReleased
	}
	current.Store(m.offset, offset, data)
	return nil
}

// Load reads n bytes starting at offset within the block.
func (m *Memory) Load(offset, n uint64) ([]byte, error) {
	if m.Released() {
		return nil, ErrMemoryReleased
	}
	buf := make([]byte, n)
	if n > 0 {
		current.Load(m.offset, offset, buf)
	}
	return buf, nil
}

// LoadAll reads the whole block.
func (m *Memory) LoadAll() ([]byte, error) {
	if m.Released() {
		return nil, ErrMemoryReleased
	}
	return m.Load(0, m.Len())
}

// LoadString reads the whole block as a string.
func (m *Memory) LoadString() (string, error) {
	b, err := m.LoadAll()
	return string(b), err
}

// LoadJSON decodes the whole block as JSON into v.
func (m *Memory) LoadJSON(v any) error {
	b, err := m.LoadAll()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode memory: %w", err)
	}
	return nil
}

// Free releases the block. Further calls are no-ops.
func (m *Memory) Free() {
	if m.Released() {
		return
	}
	current.Free(m.offset)
	m.offset = 0
}

// Move transfers ownership to a new Memory and clears m, so freeing m
// afterwards does nothing. Moving a nil Memory returns nil.
func (m *Memory) Move() *Memory {
	if m == nil {
		return nil
	}
	moved := &Memory{offset: m.offset}
	m.offset = 0
	return moved
}
