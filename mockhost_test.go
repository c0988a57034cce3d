package pdk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pdk "github.com/wasmpdk/pdk-go"
	"github.com/wasmpdk/pdk-go/abi"
)

// mockHost records raw import calls so tests can check the exact sequence.
type mockHost struct {
	mock.Mock
}

func installMock(t *testing.T) *mockHost {
	t.Helper()
	m := &mockHost{}
	t.Cleanup(pdk.SetHost(m))
	return m
}

func (m *mockHost) Alloc(n uint64) uint64 {
	return m.Called(n).Get(0).(uint64)
}

func (m *mockHost) Free(offset uint64) { m.Called(offset) }

func (m *mockHost) Length(offset uint64) uint64 {
	return m.Called(offset).Get(0).(uint64)
}

func (m *mockHost) Store(offset, rel uint64, src []byte) { m.Called(offset, rel, src) }
func (m *mockHost) Load(offset, rel uint64, dst []byte) { m.Called(offset, rel, dst) }

func (m *mockHost) InputLength() uint64 {
	return m.Called().Get(0).(uint64)
}

func (m *mockHost) InputLoad(rel uint64, dst []byte) { m.Called(rel, dst) }
func (m *mockHost) OutputSet(src []byte) { m.Called(src) }
func (m *mockHost) ErrorSet(src []byte) { m.Called(src) }

func (m *mockHost) VarGet(name []byte) uint64 {
	return m.Called(name).Get(0).(uint64)
}

func (m *mockHost) VarSet(name, value []byte) { m.Called(name, value) }

func (m *mockHost) ConfigGet(key []byte) uint64 {
	return m.Called(key).Get(0).(uint64)
}

func (m *mockHost) Log(level abi.Level, msg []byte) { m.Called(level, msg) }

func (m *mockHost) HTTPRequest(req uint64) (int32, uint64) {
	args := m.Called(req)
	return args.Get(0).(int32), args.Get(1).(uint64)
}

func (m *mockHost) HTTPStatusCode(response uint64) int32 {
	return m.Called(response).Get(0).(int32)
}

func TestSendRequest_ImportSequence(t *testing.T) {
	m := installMock(t)
	m.On("VarSet", []byte("request:method"), []byte("PATCH")).Once()
	m.On("VarSet", []byte("request:url"), []byte("https://example.com/x")).Once()
	m.On("VarSet", []byte("request:header:Accept"), []byte("*/*")).Once()
	m.On("VarSet", []byte("request:header:X-Id"), []byte("7")).Once()
	m.On("VarSet", []byte("request:body"), []byte("{}")).Once()
	m.On("HTTPRequest", uint64(0)).Return(int32(3), uint64(11)).Once()
	m.On("Free", uint64(11)).Once()

	req := pdk.NewHTTPRequest("patch", "https://example.com/x").
		SetHeader("X-Id", "7").
		SetHeader("Accept", "*/*").
		SetBody([]byte("{}"))
	resp, err := pdk.SendRequest(req)

	assert.Nil(t, resp)
	var httpErr *pdk.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, int32(3), httpErr.Code)
	m.AssertExpectations(t)

	var order []string
	for _, c := range m.Calls {
		if c.Method == "VarSet" {
			order = append(order, string(c.Arguments.Get(0).([]byte)))
			continue
		}
		order = append(order, c.Method)
	}
	assert.Equal(t, []string{
		"request:method",
		"request:url",
		"request:header:Accept",
		"request:header:X-Id",
		"request:body",
		"HTTPRequest",
		"Free",
	}, order)
}

func TestSendRequest_NoBodyVariableWithoutBody(t *testing.T) {
	m := installMock(t)
	m.On("VarSet", mock.Anything, mock.Anything)
	m.On("HTTPRequest", uint64(0)).Return(int32(0), uint64(5)).Once()
	m.On("HTTPStatusCode", uint64(5)).Return(int32(204)).Once()
	m.On("Free", uint64(5)).Once()

	err := pdk.Do(pdk.NewHTTPRequest(pdk.MethodDelete, "https://example.com/x"), func(r *pdk.HTTPResponse) error {
		assert.Equal(t, 204, r.Status())
		return nil
	})
	require.NoError(t, err)
	m.AssertExpectations(t)
	m.AssertNotCalled(t, "VarSet", []byte("request:body"), mock.Anything)
}

func TestMemory_LenIsNotCached(t *testing.T) {
	m := installMock(t)
	m.On("Alloc", uint64(4)).Return(uint64(9)).Once()
	m.On("Length", uint64(9)).Return(uint64(4)).Once()
	m.On("Length", uint64(9)).Return(uint64(6)).Once()
	m.On("Free", uint64(9)).Once()

	mem, err := pdk.Allocate(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), mem.Len())
	assert.Equal(t, uint64(6), mem.Len())
	mem.Free()
	mem.Free()
	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "Free", 1)
}

func TestAllocate_ZeroOffsetIsFailure(t *testing.T) {
	m := installMock(t)
	m.On("Alloc", uint64(1<<20)).Return(uint64(0)).Once()

	mem, err := pdk.Allocate(1 << 20)
	assert.Nil(t, mem)
	assert.ErrorIs(t, err, pdk.ErrAllocFailed)
}

func TestGetVar_AbsentSkipsMemory(t *testing.T) {
	m := installMock(t)
	m.On("VarGet", []byte("missing")).Return(uint64(0)).Once()

	v, ok := pdk.GetVar("missing")
	assert.False(t, ok)
	assert.Nil(t, v)
	m.AssertExpectations(t)
}
