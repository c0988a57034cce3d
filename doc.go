// Package pdk is the guest side of the plugin ABI: a memory ownership
// wrapper over host blocks, a facade for input, output, variables, config
// and logging, and an HTTP helper built on the variable store.
//
// Plugins are built for GOOS=wasip1 as reactors and export one function per
// entry point:
//
//	//go:wasmexport greet
//	func greet() int32 {
//	    return pdk.Run(func() error {
//	        name := pdk.InputString()
//	        pdk.OutputString("Hello, " + name + "!")
//	        return nil
//	    })
//	}
//
// Outside wasip1 every call goes to the Host installed with SetHost; the
// pdktest package provides one backed by the reference host.
package pdk

import "github.com/wasmpdk/pdk-go/abi"

// current receives every host call made by this package.
var current = abi.Imports()

// SetHost routes host calls to h and returns a function restoring the previous host.
func SetHost(h abi.Host) (restore func()) {
	prev := current
	current = h
	return func() { current = prev }
}
