package chunk

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageWriteSeek(t *testing.T) {
	p := NewPage(make([]byte, 0, 8))
	_, err := p.Write([]byte("abcdef"))
	require.NoError(t, err)
	require.NoError(t, p.Truncate(2))
	assert.Equal(t, int64(2), p.Pos())

	// growing within capacity must not resurrect truncated bytes
	pos, err := p.Seek(2, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)
	require.NoError(t, p.WriteByte('z'))
	assert.Equal(t, []byte{'a', 'b', 0, 0, 'z'}, p.Bytes())

	_, err = p.Seek(-1, io.SeekStart)
	assert.Error(t, err)
	_, err = p.Seek(0, 42)
	assert.Error(t, err)
	assert.ErrorIs(t, p.Truncate(6), ErrInvalidArgument)

	p.Rewind()
	buf := make([]byte, 8)
	n, err := p.Read(buf)
	assert.Equal(t, 5, n)
	assert.Equal(t, io.EOF, err)
	n, err = p.ReadAt(buf[:2], 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{'b', 0}, buf[:2])
}

func TestReadOnlyPage(t *testing.T) {
	p := NewReadOnlyPage([]byte("abc"))
	assert.False(t, p.Writable())
	_, err := p.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNotWritable)
	assert.ErrorIs(t, p.Truncate(0), ErrNotWritable)
	b, err := p.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)

	p.Release()
	assert.True(t, p.Released())
	_, err = p.ReadByte()
	assert.ErrorIs(t, err, ErrReleased)
	_, err = p.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, 0, p.Len())
}
