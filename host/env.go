package host

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// EnvModule is the import module name guests link against.
const EnvModule = "extism:host/env"

// guestMemory is the part of api.Memory the imports use.
type guestMemory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	WriteUint64Le(offset uint32, v uint64) bool
}

// env implements the imports against a Session. Each method takes the
// calling module's memory; ABI violations trap the call.
type env struct {
	session *Session
}

func (e env) read(name string, mem guestMemory, ptr uint32, n uint64) []byte {
	if n > math.MaxUint32 {
		trap(name, fmt.Errorf("%w: length %d", ErrOutOfBounds, n))
	}
	b, ok := mem.Read(ptr, uint32(n))
	if !ok {
		trap(name, fmt.Errorf("%w: guest range [%d, %d+%d)", ErrOutOfBounds, ptr, ptr, n))
	}
	return b
}

func (e env) writable(name string, mem guestMemory, ptr uint32, n uint64) []byte {
	// api.Memory.Read returns a view, so writes through it land in guest memory.
	return e.read(name, mem, ptr, n)
}

func (e env) store(mem guestMemory, offset, rel uint64, src uint32, n uint64) {
	if err := e.session.Store(offset, rel, e.read("store", mem, src, n)); err != nil {
		trap("store", err)
	}
}

func (e env) load(mem guestMemory, offset, rel, n uint64, dst uint32) {
	if err := e.session.Load(offset, rel, e.writable("load", mem, dst, n)); err != nil {
		trap("load", err)
	}
}

func (e env) inputLoad(mem guestMemory, rel, n uint64, dst uint32) {
	if err := e.session.InputLoad(rel, e.writable("input_load", mem, dst, n)); err != nil {
		trap("input_load", err)
	}
}

func (e env) outputSet(mem guestMemory, src uint32, n uint64) {
	e.session.SetOutput(e.read("output_set", mem, src, n))
}

func (e env) errorSet(mem guestMemory, src uint32, n uint64) {
	e.session.SetError(e.read("error_set", mem, src, n))
}

func (e env) varGet(mem guestMemory, name uint32, n uint64) uint64 {
	return e.session.VarGet(string(e.read("var_get", mem, name, n)))
}

func (e env) varSet(mem guestMemory, name uint32, n uint64, value uint32, vn uint64) {
	key := string(e.read("var_set", mem, name, n))
	if err := e.session.VarSet(key, e.read("var_set", mem, value, vn)); err != nil {
		trap("var_set", err)
	}
}

func (e env) configGet(mem guestMemory, key uint32, n uint64) uint64 {
	return e.session.ConfigGet(string(e.read("config_get", mem, key, n)))
}

func (e env) log(ctx context.Context, mem guestMemory, level slog.Level, name string, msg uint32, n uint64) {
	e.session.Log(ctx, level, string(e.read(name, mem, msg, n)))
}

func (e env) httpRequest(ctx context.Context, mem guestMemory, _ uint64, out uint32) int32 {
	status, response := e.session.HTTPRequest(ctx)
	if !mem.WriteUint64Le(out, response) {
		e.session.Free(response)
		trap("http_request", fmt.Errorf("%w: response pointer %d", ErrOutOfBounds, out))
	}
	return status
}

// instantiate registers the env module on rt.
func (e env) instantiate(ctx context.Context, rt wazero.Runtime) error {
	s := e.session
	b := rt.NewHostModuleBuilder(EnvModule)

	b.NewFunctionBuilder().
		WithFunc(func(n uint64) uint64 { return s.Alloc(n) }).
		Export("alloc")
	b.NewFunctionBuilder().
		WithFunc(func(offset uint64) { s.Free(offset) }).
		Export("free")
	b.NewFunctionBuilder().
		WithFunc(func(offset uint64) uint64 { return s.Length(offset) }).
		Export("length")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, offset, rel uint64, src uint32, n uint64) {
			e.store(m.Memory(), offset, rel, src, n)
		}).
		Export("store")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, offset, rel, n uint64, dst uint32) {
			e.load(m.Memory(), offset, rel, n, dst)
		}).
		Export("load")
	b.NewFunctionBuilder().
		WithFunc(func() uint64 { return s.InputLength() }).
		Export("input_length")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, rel, n uint64, dst uint32) {
			e.inputLoad(m.Memory(), rel, n, dst)
		}).
		Export("input_load")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, src uint32, n uint64) {
			e.outputSet(m.Memory(), src, n)
		}).
		Export("output_set")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, src uint32, n uint64) {
			e.errorSet(m.Memory(), src, n)
		}).
		Export("error_set")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, name uint32, n uint64) uint64 {
			return e.varGet(m.Memory(), name, n)
		}).
		Export("var_get")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, name uint32, n uint64, value uint32, vn uint64) {
			e.varSet(m.Memory(), name, n, value, vn)
		}).
		Export("var_set")
	b.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, key uint32, n uint64) uint64 {
			return e.configGet(m.Memory(), key, n)
		}).
		Export("config_get")

	for name, level := range map[string]slog.Level{
		"log_debug": slog.LevelDebug,
		"log_info":  slog.LevelInfo,
		"log_warn":  slog.LevelWarn,
		"log_error": slog.LevelError,
	} {
		name, level := name, level
		b.NewFunctionBuilder().
			WithFunc(func(ctx context.Context, m api.Module, msg uint32, n uint64) {
				e.log(ctx, m.Memory(), level, name, msg, n)
			}).
			Export(name)
	}

	b.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, req uint64, out uint32) int32 {
			return e.httpRequest(ctx, m.Memory(), req, out)
		}).
		Export("http_request")
	b.NewFunctionBuilder().
		WithFunc(func(response uint64) int32 { return s.HTTPStatusCode(response) }).
		Export("http_status_code")

	_, err := b.Instantiate(ctx)
	return err
}
