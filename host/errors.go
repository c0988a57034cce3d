package host

import (
	"errors"
	"fmt"
)

var (
	// ErrFunctionNotFound is returned by Plugin.Call for names the guest does not export.
	ErrFunctionNotFound = errors.New("host: function not exported by plugin")

	// ErrUnknownBlock is returned for offsets that do not name a live block.
	ErrUnknownBlock = errors.New("host: unknown memory block")

	// ErrOutOfBounds is returned when an access falls outside a block or input.
	ErrOutOfBounds = errors.New("host: memory access out of bounds")

	// ErrVarTooLarge is returned when a variable exceeds the configured limit.
	ErrVarTooLarge = errors.New("host: variable exceeds size limit")

	// ErrHostNotAllowed is returned when a request targets a host outside the allow list.
	ErrHostNotAllowed = errors.New("host: HTTP host not allowed")

	// ErrInvalidRequest is returned when the request:* variables do not form a request.
	ErrInvalidRequest = errors.New("host: invalid HTTP request")
)

// CallError reports a guest function that returned a non-zero code.
type CallError struct {
	Function string
	Message  string
	Code     int32
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("plugin function %s failed with code %d", e.Function, e.Code)
	}
	return fmt.Sprintf("plugin function %s failed with code %d: %s", e.Function, e.Code, e.Message)
}

// TrapError is raised (as a panic) inside a host import when the guest
// violates the ABI. wazero turns it into an error returned from the call.
type TrapError struct {
	Err    error
	Import string
}

func (e *TrapError) Error() string {
	return fmt.Sprintf("%s: %v", e.Import, e.Err)
}

func (e *TrapError) Unwrap() error {
	return e.Err
}

func trap(name string, err error) {
	panic(&TrapError{Import: name, Err: err})
}
