// pkg/utils/buffer.go

package utils

import "encoding/binary"

// Buffer is a fixed-size byte buffer with little-endian put/get helpers.
// Out-of-range access panics, callers size the buffer up front.
type Buffer struct {
	endian binary.ByteOrder
	off    int
	buf    []byte
}

// NewBuffer returns a buffer of exactly sz bytes ready for Put calls.
func NewBuffer(sz uint32) *Buffer {
	return FromBuffer(make([]byte, sz))
}

// FromBuffer wraps buf, starting at offset 0.
func FromBuffer(buf []byte) *Buffer {
	return &Buffer{binary.LittleEndian, 0, buf}
}

// ReadBuffer wraps buf for the Get calls.
func ReadBuffer(buf []byte) *Buffer {
	return FromBuffer(buf)
}

// Offset returns the current cursor.
func (b *Buffer) Offset() int {
	return b.off
}

func (b *Buffer) HasMore() bool {
	return b.off < len(b.buf)
}

func (b *Buffer) Put32(v uint32) {
	b.endian.PutUint32(b.buf[b.off:b.off+4], v)
	b.off += 4
}

func (b *Buffer) Get32() uint32 {
	v := b.endian.Uint32(b.buf[b.off : b.off+4])
	b.off += 4
	return v
}

func (b *Buffer) Put64(v uint64) {
	b.endian.PutUint64(b.buf[b.off:b.off+8], v)
	b.off += 8
}

func (b *Buffer) Get64() uint64 {
	v := b.endian.Uint64(b.buf[b.off : b.off+8])
	b.off += 8
	return v
}

// PutUvarint writes v in the 7-bit variable length encoding.
func (b *Buffer) PutUvarint(v uint64) {
	b.off += binary.PutUvarint(b.buf[b.off:], v)
}

func (b *Buffer) Put(v []byte) {
	l := copy(b.buf[b.off:], v)
	b.off += l
}

func (b *Buffer) Get(l int) []byte {
	b.off += l
	return b.buf[b.off-l : b.off]
}

// Bytes returns the whole underlying slice regardless of the cursor.
func (b *Buffer) Bytes() []byte {
	return b.buf
}
