package host

import "fmt"

// kernel is the table of host-owned blocks handed out to the guest.
// Offsets are opaque, start at 1 and are never reused within a session, so a
// stale offset can only ever miss.
type kernel struct {
	blocks map[uint64][]byte
	next   uint64
	used   int
	limit  int
}

func newKernel(limit int) *kernel {
	return &kernel{
		blocks: make(map[uint64][]byte),
		next:   1,
		limit:  limit,
	}
}

// alloc reserves n zeroed bytes. Returns 0 if the budget would be exceeded.
func (k *kernel) alloc(n uint64) uint64 {
	if n > uint64(k.limit-k.used) {
		return 0
	}
	offset := k.next
	k.next++
	k.blocks[offset] = make([]byte, n)
	k.used += int(n)
	return offset
}

// allocBytes reserves a block holding a copy of data.
func (k *kernel) allocBytes(data []byte) uint64 {
	offset := k.alloc(uint64(len(data)))
	if offset != 0 {
		copy(k.blocks[offset], data)
	}
	return offset
}

// free releases a block. Unknown offsets are ignored.
func (k *kernel) free(offset uint64) bool {
	b, ok := k.blocks[offset]
	if !ok {
		return false
	}
	delete(k.blocks, offset)
	k.used -= len(b)
	return true
}

func (k *kernel) length(offset uint64) uint64 {
	return uint64(len(k.blocks[offset]))
}

// slice returns the n bytes of a block starting at rel.
func (k *kernel) slice(offset, rel, n uint64) ([]byte, error) {
	b, ok := k.blocks[offset]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, offset)
	}
	return window(b, rel, n)
}

// window bounds-checks [rel, rel+n) against b without overflowing.
func window(b []byte, rel, n uint64) ([]byte, error) {
	size := uint64(len(b))
	if rel > size || n > size-rel {
		return nil, fmt.Errorf("%w: [%d, %d+%d) of %d bytes", ErrOutOfBounds, rel, rel, n, size)
	}
	return b[rel : rel+n], nil
}
