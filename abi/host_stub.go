//go:build !wasip1

package abi

// Imports returns a Host stub for native builds. Every method panics; install
// an in-process host (see pdktest) to run guest code outside WebAssembly.
func Imports() Host {
	return stubHost{}
}

const stubMessage = "abi: host imports are only available in wasip1 builds"

type stubHost struct{}

func (stubHost) Alloc(uint64) uint64 { panic(stubMessage) }
func (stubHost) Free(uint64) { panic(stubMessage) }
func (stubHost) Length(uint64) uint64 { panic(stubMessage) }
func (stubHost) Store(uint64, uint64, []byte) { panic(stubMessage) }
func (stubHost) Load(uint64, uint64, []byte) { panic(stubMessage) }
func (stubHost) InputLength() uint64 { panic(stubMessage) }
func (stubHost) InputLoad(uint64, []byte) { panic(stubMessage) }
func (stubHost) OutputSet([]byte) { panic(stubMessage) }
func (stubHost) ErrorSet([]byte) { panic(stubMessage) }
func (stubHost) VarGet([]byte) uint64 { panic(stubMessage) }
func (stubHost) VarSet([]byte, []byte) { panic(stubMessage) }
func (stubHost) ConfigGet([]byte) uint64 { panic(stubMessage) }
func (stubHost) Log(Level, []byte) { panic(stubMessage) }
func (stubHost) HTTPRequest(uint64) (int32, uint64) { panic(stubMessage) }
func (stubHost) HTTPStatusCode(uint64) int32 { panic(stubMessage) }
