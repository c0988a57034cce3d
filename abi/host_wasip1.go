//go:build wasip1

package abi

import "unsafe"

// Imports returns the Host backed by the real host imports.
func Imports() Host {
	return importHost{}
}

type importHost struct{}

// ptr returns the address of the first byte of b, or nil for an empty slice.
// The host never dereferences a pointer paired with a zero length.
//
//nolint:gosec // G103: guest buffers are handed to the host by address
func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

func (importHost) Alloc(n uint64) uint64 { return extismAlloc(n) }
func (importHost) Free(offset uint64) { extismFree(offset) }
func (importHost) Length(offset uint64) uint64 { return extismLength(offset) }

func (importHost) Store(offset, rel uint64, src []byte) {
	extismStore(offset, rel, ptr(src), uint64(len(src)))
}

func (importHost) Load(offset, rel uint64, dst []byte) {
	extismLoad(offset, rel, uint64(len(dst)), ptr(dst))
}

func (importHost) InputLength() uint64 { return extismInputLength() }

func (importHost) InputLoad(rel uint64, dst []byte) {
	extismInputLoad(rel, uint64(len(dst)), ptr(dst))
}

func (importHost) OutputSet(src []byte) { extismOutputSet(ptr(src), uint64(len(src))) }
func (importHost) ErrorSet(src []byte) { extismErrorSet(ptr(src), uint64(len(src))) }

func (importHost) VarGet(name []byte) uint64 {
	return extismVarGet(ptr(name), uint64(len(name)))
}

func (importHost) VarSet(name, value []byte) {
	extismVarSet(ptr(name), uint64(len(name)), ptr(value), uint64(len(value)))
}

func (importHost) ConfigGet(key []byte) uint64 {
	return extismConfigGet(ptr(key), uint64(len(key)))
}

func (importHost) Log(level Level, msg []byte) {
	p, n := ptr(msg), uint64(len(msg))
	switch level {
	case LevelDebug:
		extismLogDebug(p, n)
	case LevelWarn:
		extismLogWarn(p, n)
	case LevelError:
		extismLogError(p, n)
	default:
		extismLogInfo(p, n)
	}
}

func (importHost) HTTPRequest(req uint64) (int32, uint64) {
	var response uint64
	status := extismHTTPRequest(req, unsafe.Pointer(&response))
	return status, response
}

func (importHost) HTTPStatusCode(response uint64) int32 {
	return extismHTTPStatusCode(response)
}
