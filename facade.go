package pdk

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/wasmpdk/pdk-go/abi"
)

// LogLevel selects the host log import.
type LogLevel = abi.Level

// Log levels, one per host log import.
const (
	LevelDebug = abi.LevelDebug
	LevelInfo  = abi.LevelInfo
	LevelWarn  = abi.LevelWarn
	LevelError = abi.LevelError
)

// Input returns the bytes the host passed to the current call.
func Input() []byte {
	n := current.InputLength()
	buf := make([]byte, n)
	if n > 0 {
		current.InputLoad(0, buf)
	}
	return buf
}

// InputString returns the input as a string.
func InputString() string {
	return string(Input())
}

// InputJSON decodes the input into v.
func InputJSON(v any) error {
	if err := json.Unmarshal(Input(), v); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}
	return nil
}

// Output sets the call output.
func Output(b []byte) {
	current.OutputSet(b)
}

// OutputString sets the call output to s.
func OutputString(s string) {
	Output([]byte(s))
}

// OutputJSON encodes v and sets it as the call output.
func OutputJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	Output(b)
	return nil
}

// OutputMemory sets the call output to the contents of m. m is not freed.
func OutputMemory(m *Memory) error {
	b, err := m.LoadAll()
	if err != nil {
		return err
	}
	Output(b)
	return nil
}

// SetError reports err to the host as the call's error message.
func SetError(err error) {
	SetErrorString(err.Error())
}

// SetErrorString reports msg to the host as the call's error message.
func SetErrorString(msg string) {
	current.ErrorSet([]byte(msg))
}

// GetVar returns the value of a host variable. ok is false if it is not set.
func GetVar(name string) (value []byte, ok bool) {
	m := FindMemory(current.VarGet([]byte(name)))
	if m == nil {
		return nil, false
	}
	defer m.Free()
	b, err := m.LoadAll()
	return b, err == nil
}

// GetVarString returns a host variable as a string.
func GetVarString(name string) (string, bool) {
	b, ok := GetVar(name)
	return string(b), ok
}

// SetVar sets a host variable. An empty value is stored as an empty variable.
func SetVar(name string, value []byte) {
	if value == nil {
		value = []byte{}
	}
	current.VarSet([]byte(name), value)
}

// SetVarString sets a host variable to s.
func SetVarString(name, s string) {
	SetVar(name, []byte(s))
}

// GetVarInt reads a variable holding a little-endian 64-bit integer.
// ok is false if the variable is unset or not eight bytes long.
func GetVarInt(name string) (int64, bool) {
	b, ok := GetVar(name)
	if !ok || len(b) != 8 {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(b)), true
}

// SetVarInt stores v as a little-endian 64-bit integer.
func SetVarInt(name string, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	SetVar(name, b[:])
}

// GetConfig returns a plugin configuration value.
func GetConfig(key string) (string, bool) {
	m := FindMemory(current.ConfigGet([]byte(key)))
	if m == nil {
		return "", false
	}
	defer m.Free()
	b, err := m.LoadAll()
	return string(b), err == nil
}

// Log emits msg at level through the host.
func Log(level LogLevel, msg string) {
	current.Log(level, []byte(msg))
}

// Logf formats and emits a log line.
func Logf(level LogLevel, format string, args ...any) {
	Log(level, fmt.Sprintf(format, args...))
}

// LogDebug emits a debug line.
func LogDebug(msg string) { Log(LevelDebug, msg) }

// LogInfo emits an info line.
func LogInfo(msg string) { Log(LevelInfo, msg) }

// LogWarn emits a warning.
func LogWarn(msg string) { Log(LevelWarn, msg) }

// LogError emits an error line.
func LogError(msg string) { Log(LevelError, msg) }
