package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernel_AllocFree(t *testing.T) {
	k := newKernel(16)

	a := k.alloc(8)
	b := k.alloc(0)
	require.NotZero(t, a)
	require.NotZero(t, b)
	assert.NotEqual(t, a, b)
	assert.Equal(t, uint64(8), k.length(a))
	assert.Equal(t, uint64(0), k.length(b))

	assert.True(t, k.free(a))
	assert.False(t, k.free(a), "second free is a no-op")
	assert.Equal(t, uint64(0), k.length(a))

	c := k.alloc(8)
	assert.NotEqual(t, a, c, "offsets are not reused")
}

func TestKernel_Budget(t *testing.T) {
	k := newKernel(10)

	a := k.alloc(6)
	require.NotZero(t, a)
	assert.Zero(t, k.alloc(5), "over budget")
	assert.NotZero(t, k.alloc(4))

	k.free(a)
	assert.NotZero(t, k.alloc(6), "freed bytes return to the budget")
}

func TestKernel_AllocBytes(t *testing.T) {
	k := newKernel(64)
	offset := k.allocBytes([]byte("hello"))
	b, err := k.slice(offset, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestKernel_Slice(t *testing.T) {
	k := newKernel(64)
	offset := k.alloc(4)

	tests := []struct {
		wantErr error
		name    string
		offset  uint64
		rel     uint64
		n       uint64
	}{
		{name: "whole block", offset: offset, rel: 0, n: 4},
		{name: "tail", offset: offset, rel: 3, n: 1},
		{name: "empty at end", offset: offset, rel: 4, n: 0},
		{name: "past end", offset: offset, rel: 2, n: 3, wantErr: ErrOutOfBounds},
		{name: "rel past end", offset: offset, rel: 5, n: 0, wantErr: ErrOutOfBounds},
		{name: "overflow", offset: offset, rel: 1, n: ^uint64(0), wantErr: ErrOutOfBounds},
		{name: "unknown block", offset: 99, rel: 0, n: 0, wantErr: ErrUnknownBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := k.slice(tt.offset, tt.rel, tt.n)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, b, int(tt.n))
		})
	}
}
