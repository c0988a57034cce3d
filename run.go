package pdk

import "fmt"

// Run executes an exported function body and returns the status the host
// expects: 0 on success, 1 after reporting a returned error or a recovered
// panic through SetError.
func Run(fn func() error) (code int32) {
	defer func() {
		if r := recover(); r != nil {
			SetErrorString(fmt.Sprintf("panic: %v", r))
			code = 1
		}
	}()

	if err := fn(); err != nil {
		SetError(err)
		return 1
	}
	return 0
}
