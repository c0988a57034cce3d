package host

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Plugin is an instantiated guest module bound to its own Session.
// A Plugin is not safe for concurrent use.
type Plugin struct {
	runtime wazero.Runtime
	module  api.Module
	session *Session
	cfg     config
}

// NewPlugin compiles and instantiates a guest module.
func NewPlugin(ctx context.Context, wasm []byte, opts ...Option) (*Plugin, error) {
	session := NewSession(opts...)
	cfg := session.cfg

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	if err := (env{session: session}).instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName(cfg.name).
		WithStdout(os.Stderr).
		WithStderr(os.Stderr).
		WithStartFunctions()
	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	// Reactor guests (-buildmode=c-shared) need _initialize before any export.
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	session.logger.Debug("plugin loaded", "exports", len(compiled.ExportedFunctions()))
	return &Plugin{runtime: rt, module: mod, session: session, cfg: cfg}, nil
}

// Session returns the state shared with the guest.
func (p *Plugin) Session() *Session {
	return p.session
}

// FunctionExists reports whether the guest exports name.
func (p *Plugin) FunctionExists(name string) bool {
	return p.module.ExportedFunction(name) != nil
}

// Call runs an exported function with input and returns its code and output.
// A non-zero code is reported as a *CallError carrying the message the guest
// passed to error_set. ABI violations are reported as errors wrapping *TrapError.
func (p *Plugin) Call(ctx context.Context, name string, input []byte) (int32, []byte, error) {
	fn := p.module.ExportedFunction(name)
	if fn == nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}

	if p.cfg.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.callTimeout)
		defer cancel()
	}

	p.session.Reset(name, input)
	results, err := fn.Call(ctx)
	if err != nil {
		var trapErr *TrapError
		if errors.As(err, &trapErr) {
			p.session.logger.Error("plugin trapped", "function", name, "import", trapErr.Import, "error", trapErr.Err)
		}
		return 0, nil, fmt.Errorf("calling %s: %w", name, err)
	}

	var code int32
	if len(results) > 0 {
		code = api.DecodeI32(results[0])
	}
	output := p.session.Output()
	if code != 0 {
		msg, _ := p.session.ErrorMessage()
		return code, output, &CallError{Function: name, Code: code, Message: msg}
	}
	return code, output, nil
}

// Close releases the runtime and every module in it.
func (p *Plugin) Close(ctx context.Context) error {
	return p.runtime.Close(ctx)
}
