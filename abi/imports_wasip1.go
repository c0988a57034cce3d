//go:build wasip1

package abi

import "unsafe"

//go:wasmimport extism:host/env alloc
func extismAlloc(n uint64) uint64

//go:wasmimport extism:host/env free
func extismFree(offset uint64)

//go:wasmimport extism:host/env length
func extismLength(offset uint64) uint64

//go:wasmimport extism:host/env store
func extismStore(offset, rel uint64, src unsafe.Pointer, n uint64)

//go:wasmimport extism:host/env load
func extismLoad(offset, rel, n uint64, dst unsafe.Pointer)

//go:wasmimport extism:host/env input_length
func extismInputLength() uint64

//go:wasmimport extism:host/env input_load
func extismInputLoad(rel, n uint64, dst unsafe.Pointer)

//go:wasmimport extism:host/env output_set
func extismOutputSet(src unsafe.Pointer, n uint64)

//go:wasmimport extism:host/env error_set
func extismErrorSet(src unsafe.Pointer, n uint64)

//go:wasmimport extism:host/env var_get
func extismVarGet(name unsafe.Pointer, n uint64) uint64

//go:wasmimport extism:host/env var_set
func extismVarSet(name unsafe.Pointer, nameLen uint64, value unsafe.Pointer, valueLen uint64)

//go:wasmimport extism:host/env config_get
func extismConfigGet(key unsafe.Pointer, n uint64) uint64

//go:wasmimport extism:host/env log_debug
func extismLogDebug(msg unsafe.Pointer, n uint64)

//go:wasmimport extism:host/env log_info
func extismLogInfo(msg unsafe.Pointer, n uint64)

//go:wasmimport extism:host/env log_warn
func extismLogWarn(msg unsafe.Pointer, n uint64)

//go:wasmimport extism:host/env log_error
func extismLogError(msg unsafe.Pointer, n uint64)

//go:wasmimport extism:host/env http_request
func extismHTTPRequest(req uint64, out unsafe.Pointer) int32

//go:wasmimport extism:host/env http_status_code
func extismHTTPStatusCode(response uint64) int32
