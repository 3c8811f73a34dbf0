package chunk

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseInsensitiveNames(t *testing.T) {
	d := NewDirectory()
	p, err := d.CreateChunk("Foo", 0)
	require.NoError(t, err)

	for _, name := range []string{"FOO", "foo", "fOo"} {
		got, err := d.Get(name)
		require.NoError(t, err, name)
		assert.Same(t, p, got, name)
		assert.True(t, d.HasChunk(name), name)
	}

	_, err = d.CreateChunk("foo", 0)
	assert.ErrorIs(t, err, ErrDuplicateChunk)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, []string{"Foo"}, d.Names())
}

func TestGetMissing(t *testing.T) {
	d := NewDirectory()
	_, err := d.Get("MISSING")
	assert.ErrorIs(t, err, ErrChunkNotFound)
	assert.ErrorIs(t, d.DestroyChunk("MISSING"), ErrChunkNotFound)
	assert.ErrorIs(t, d.Set("MISSING", NewPage(nil)), ErrChunkNotFound)
	assert.False(t, d.HasChunk("MISSING"))
}

func TestClearChunksIdempotent(t *testing.T) {
	d := NewDirectory()
	d.ClearChunks()
	assert.Equal(t, 0, d.Len())

	p, err := d.CreateChunk("a", 16)
	require.NoError(t, err)
	d.ClearChunks()
	d.ClearChunks()
	assert.Equal(t, 0, d.Len())
	assert.True(t, p.Released())
	assert.Empty(t, d.Names())
}

func TestCreateChunkArguments(t *testing.T) {
	d := NewDirectory()

	_, err := d.CreateChunk("", 0)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "name", argErr.Param)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = d.CreateChunk("a", -1)
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "sizeHint", argErr.Param)

	p, err := d.CreateChunk("a", 128)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
	assert.GreaterOrEqual(t, cap(p.Bytes()), 128)
}

func TestAddChunk(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.AddChunk("data", NewPage([]byte{1, 2, 3})))
	assert.ErrorIs(t, d.AddChunk("DATA", NewPage(nil)), ErrDuplicateChunk)
	assert.ErrorIs(t, d.AddChunk("ro", NewReadOnlyPage([]byte{1})), ErrNotWritable)
	assert.ErrorIs(t, d.AddChunk("", NewPage(nil)), ErrInvalidArgument)
	assert.ErrorIs(t, d.AddChunk("nil", nil), ErrInvalidArgument)

	released := NewPage([]byte{1})
	released.Release()
	assert.ErrorIs(t, d.AddChunk("released", released), ErrNotWritable)
	assert.Equal(t, int64(3), d.UsedMemory())
}

func TestDestroyReleasesPage(t *testing.T) {
	d := NewDirectory()
	p, err := d.CreateChunk("a", 0)
	require.NoError(t, err)
	_, err = p.Write([]byte("abc"))
	require.NoError(t, err)

	require.NoError(t, d.DestroyChunk("A"))
	assert.True(t, p.Released())
	assert.False(t, d.HasChunk("a"))

	_, err = p.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrReleased)
	_, err = p.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrReleased)
}

func TestSetReplacesAndRemoves(t *testing.T) {
	d := NewDirectory()
	old, err := d.CreateChunk("a", 0)
	require.NoError(t, err)
	_, err = d.CreateChunk("b", 0)
	require.NoError(t, err)

	repl := NewPage([]byte("new"))
	require.NoError(t, d.Set("A", repl))
	assert.True(t, old.Released())
	got, err := d.Get("a")
	require.NoError(t, err)
	assert.Same(t, repl, got)
	assert.Equal(t, []string{"a", "b"}, d.Names())

	require.NoError(t, d.Set("a", repl))
	assert.False(t, repl.Released())

	require.NoError(t, d.Set("a", nil))
	assert.True(t, repl.Released())
	assert.Equal(t, []string{"b"}, d.Names())
}

func TestRangeOrder(t *testing.T) {
	d := NewDirectory()
	for _, name := range []string{"zeta", "Alpha", "mid"} {
		_, err := d.CreateChunk(name, 0)
		require.NoError(t, err)
	}
	require.NoError(t, d.DestroyChunk("alpha"))
	_, err := d.CreateChunk("alpha", 0)
	require.NoError(t, err)

	var seen []string
	d.Range(func(name string, _ *Page) bool {
		seen = append(seen, name)
		return len(seen) < 2
	})
	assert.Equal(t, []string{"zeta", "mid"}, seen)
	assert.Equal(t, []string{"zeta", "mid", "alpha"}, d.Names())
}

func TestArgumentErrorMessage(t *testing.T) {
	err := argError("start", "%d is negative", -1)
	assert.Equal(t, "invalid argument: start: -1 is negative", err.Error())
	assert.True(t, errors.Is(errors.Wrap(err, "write"), ErrInvalidArgument))
}

func TestOversizePageRejected(t *testing.T) {
	defer func(n int64) { maxPageLen = n }(maxPageLen)
	maxPageLen = 4

	d := NewDirectory()
	var argErr *ArgumentError
	require.ErrorAs(t, d.AddChunk("big", NewPage([]byte("12345"))), &argErr)
	assert.Equal(t, "page", argErr.Param)
	assert.False(t, d.HasChunk("big"))

	require.NoError(t, d.AddChunk("small", NewPage([]byte("1234"))))
	assert.ErrorIs(t, d.Set("small", NewPage([]byte("12345"))), ErrInvalidArgument)
	p, err := d.Get("small")
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), p.Bytes())
}
