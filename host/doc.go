// Package host is a reference runtime for guest plugins built with this PDK.
//
// It implements the extism:host/env import surface on top of wazero: a
// handle table for host-owned memory blocks, a variable store, plugin
// configuration, input/output/error buffers, logging through slog and an
// HTTP primitive driven by request:* variables.
//
// Session holds all of that state in plain Go and is usable without a
// WebAssembly engine (the pdktest package builds on it). Plugin binds a
// Session to a wazero module instance.
//
// # Basic Usage
//
//	manifest, err := host.LoadManifest("plugin.yaml")
//	if err != nil {
//	    return err
//	}
//	plugin, err := host.NewPluginFromManifest(ctx, manifest)
//	if err != nil {
//	    return err
//	}
//	defer plugin.Close(ctx)
//
//	code, output, err := plugin.Call(ctx, "hello", []byte(`{"name":"Ada"}`))
package host
