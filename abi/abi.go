// Package abi declares the host import surface that guest plugins are linked
// against.
//
// The surface is owned by the host runtime and must not change: every
// function lives in the ModuleName namespace, guest buffers are passed as
// (pointer, length) pairs into guest linear memory and host buffers are
// referenced through opaque offsets returned by alloc, var_get and
// config_get. An offset of zero always means "no block".
//
// On wasip1 builds Imports returns the real host functions. On every other
// target it returns a stub that panics, so code that needs to run natively
// (tests, tooling) must supply its own Host, see the pdktest package.
package abi

// ModuleName is the import module the host registers its functions under.
const ModuleName = "extism:host/env"

// Level is a log severity understood by the host.
type Level int32

// Log severities, one host import each.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase severity name used in import names.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Host is the set of host primitives a guest can call. Implementations treat
// every call as synchronous and infallible from the guest's point of view;
// a host that cannot honour a call traps the guest instead of returning.
type Host interface {
	// Alloc reserves a host block of n bytes and returns its offset, or 0.
	Alloc(n uint64) uint64
	// Free releases a block. Unknown offsets are ignored.
	Free(offset uint64)
	// Length reports the size of a block, or 0 for unknown offsets.
	Length(offset uint64) uint64
	// Store copies src into the block at offset, starting at rel.
	Store(offset, rel uint64, src []byte)
	// Load copies len(dst) bytes out of the block at offset, starting at rel.
	Load(offset, rel uint64, dst []byte)

	InputLength() uint64
	InputLoad(rel uint64, dst []byte)
	OutputSet(src []byte)
	ErrorSet(src []byte)

	// VarGet returns a freshly allocated block holding the variable, or 0.
	// The caller owns the returned block.
	VarGet(name []byte) uint64
	VarSet(name, value []byte)
	// ConfigGet returns a freshly allocated block holding the value, or 0.
	ConfigGet(key []byte) uint64

	Log(level Level, msg []byte)

	// HTTPRequest issues the request described by the request:* variables.
	// req is reserved and always 0. A zero status means response holds a
	// valid response offset.
	HTTPRequest(req uint64) (status int32, response uint64)
	HTTPStatusCode(response uint64) int32
}
