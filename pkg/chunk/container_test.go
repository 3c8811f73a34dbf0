package chunk

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// headerBody builds the HEADER/BODY container used by several tests.
func headerBody(t *testing.T) *Directory {
	t.Helper()
	d := NewDirectory()
	w := NewWriter(d)
	require.NoError(t, w.SetCurrentChunk("HEADER"))
	require.NoError(t, w.WriteInt32(1))
	require.NoError(t, w.WriteInt32(2))
	require.NoError(t, w.SetCurrentChunk("BODY"))
	require.NoError(t, w.WriteString("hello"))
	require.NoError(t, w.Close())
	return d
}

func TestHeaderBodyScenario(t *testing.T) {
	data, err := headerBody(t).Save()
	require.NoError(t, err)

	d := NewDirectory()
	require.NoError(t, d.Load(data))
	assert.Equal(t, 2, d.Len())

	r, err := d.OpenReader("HEADER")
	require.NoError(t, err)
	v, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
	v, err = r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)

	r, err = d.OpenReader("body")
	require.NoError(t, err)
	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	_, err = r.ReadByte()
	assert.ErrorIs(t, err, ErrEndOfData)
}

func TestSaveLayout(t *testing.T) {
	d := headerBody(t)
	data, err := d.Save()
	require.NoError(t, err)

	// 16 magic + 4 count + 2*8 offsets, then 1+15+4+8 for HEADER and
	// 1+13+4+6 for BODY.
	require.Len(t, data, 88)
	assert.Equal(t, Magic, string(data[:16]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[16:]))
	assert.Equal(t, uint64(36), binary.LittleEndian.Uint64(data[20:]))
	assert.Equal(t, uint64(64), binary.LittleEndian.Uint64(data[28:]))

	assert.Equal(t, byte(15), data[36])
	assert.Equal(t, "GORCHUNK HEADER", string(data[37:52]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(data[52:]))
	assert.Equal(t, byte(13), data[64])
	assert.Equal(t, "GORCHUNK BODY", string(data[65:78]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(data[78:]))
	assert.Equal(t, []byte("\x05hello"), data[82:])

	assert.Equal(t, []Entry{
		{Name: "HEADER", Offset: 36, Length: 8},
		{Name: "BODY", Offset: 64, Length: 6},
	}, d.Layout())

	entries, err := ReadTable(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, d.Layout(), entries)
}

func TestRoundTrip(t *testing.T) {
	src := NewDirectory()
	want := map[string][]byte{
		"alpha":       {1, 2, 3},
		"Beta":        bytes.Repeat([]byte{0xfe}, 1000),
		"with space":  []byte("x"),
		"GORCHUNK in": []byte("tag-like name"),
	}
	for name, body := range want {
		p, err := src.CreateChunk(name, len(body))
		require.NoError(t, err)
		_, err = p.Write(body)
		require.NoError(t, err)
	}
	data, err := src.Save()
	require.NoError(t, err)

	dst := NewDirectory()
	require.NoError(t, dst.Load(data))
	assert.Equal(t, len(want), dst.Len())
	for name, body := range want {
		p, err := dst.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, body, p.Bytes(), name)
	}
	assert.Equal(t, src.UsedMemory(), dst.UsedMemory())

	again, err := dst.Save()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEmptyChunkElision(t *testing.T) {
	d := NewDirectory()
	_, err := d.CreateChunk("empty", 64)
	require.NoError(t, err)
	p, err := d.CreateChunk("full", 0)
	require.NoError(t, err)
	require.NoError(t, p.WriteByte(7))

	data, err := d.Save()
	require.NoError(t, err)

	loaded := NewDirectory()
	require.NoError(t, loaded.Load(data))
	assert.False(t, loaded.HasChunk("empty"))
	assert.True(t, loaded.HasChunk("full"))
	assert.Equal(t, 1, loaded.Len())
}

func TestSaveNothing(t *testing.T) {
	d := NewDirectory()
	_, err := d.CreateChunk("empty", 0)
	require.NoError(t, err)
	data, err := d.Save()
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = d.SaveTo(nil)
	assert.ErrorIs(t, err, ErrNotWritable)
}

func TestLoadZeroBytes(t *testing.T) {
	d := NewDirectory()
	require.NoError(t, d.Load(nil))
	assert.Equal(t, 0, d.Len())
	require.NoError(t, d.Load([]byte{}))
	assert.Equal(t, 0, d.Len())
}

func TestLoadMalformed(t *testing.T) {
	good, err := headerBody(t).Save()
	require.NoError(t, err)

	patch := func(off int, b ...byte) []byte {
		data := append([]byte(nil), good...)
		copy(data[off:], b)
		return data
	}
	var far [8]byte
	binary.LittleEndian.PutUint64(far[:], 1000)
	var back [8]byte
	binary.LittleEndian.PutUint64(back[:], 20)

	cases := map[string][]byte{
		"bad magic":         patch(0, 'X'),
		"short magic":       good[:10],
		"negative count":    patch(16, 0xff, 0xff, 0xff, 0xff),
		"count too large":   patch(16, 200),
		"offset past end":   patch(28, far[:]...),
		"offset into table": patch(28, back[:]...),
		"bad tag":           patch(37, 'X'),
		"truncated body":    good[:len(good)-1],
		"oversized length":  patch(78, 0xff, 0, 0, 0),
		"negative length":   patch(78, 0, 0, 0, 0x80),
		"no count":          good[:18],
		"truncated table":   good[:30],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			d := NewDirectory()
			_, err := d.CreateChunk("stale", 0)
			require.NoError(t, err)

			err = d.Load(data)
			assert.ErrorIs(t, err, ErrMalformedContainer)
			assert.Equal(t, 0, d.Len())
		})
	}
}

func TestLoadDuplicateNames(t *testing.T) {
	d := NewDirectory()
	for _, name := range []string{"x1", "x2"} {
		p, err := d.CreateChunk(name, 0)
		require.NoError(t, err)
		require.NoError(t, p.WriteByte(1))
	}
	data, err := d.Save()
	require.NoError(t, err)
	i := bytes.LastIndex(data, []byte("GORCHUNK X2"))
	require.Positive(t, i)
	data[i+len("GORCHUNK X2")-1] = '1'

	err = d.Load(data)
	assert.ErrorIs(t, err, ErrMalformedContainer)
	assert.Equal(t, 0, d.Len())
}

func TestLoadOptions(t *testing.T) {
	data, err := headerBody(t).Save()
	require.NoError(t, err)

	d := NewDirectory()
	require.NoError(t, d.Load(data, WithFilter(func(name string) bool {
		return name == "BODY"
	})))
	assert.Equal(t, []string{"BODY"}, d.Names())

	err = d.Load(data, WithMaxChunkSize(6))
	assert.ErrorIs(t, err, ErrMalformedContainer)
	assert.Equal(t, 0, d.Len())

	require.NoError(t, d.Load(data, WithMaxChunkSize(8)))
	assert.Equal(t, 2, d.Len())
}

func TestLoadFromPosition(t *testing.T) {
	data, err := headerBody(t).Save()
	require.NoError(t, err)

	r := bytes.NewReader(append([]byte("junk"), data...))
	_, err = r.Seek(4, io.SeekStart)
	require.NoError(t, err)

	d := NewDirectory()
	require.NoError(t, d.LoadFrom(r))
	assert.Equal(t, []string{"HEADER", "BODY"}, d.Names())
}

func TestLoadFromUnsupported(t *testing.T) {
	data, err := headerBody(t).Save()
	require.NoError(t, err)

	d := NewDirectory()
	err = d.LoadFrom(struct{ io.Reader }{bytes.NewReader(data)})
	assert.ErrorIs(t, err, ErrNotSeekable)
	assert.ErrorIs(t, d.LoadFrom(nil), ErrInvalidArgument)
}

func TestSaveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "container.gck")

	require.NoError(t, headerBody(t).SaveFile(path))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "container.gck", entries[0].Name())

	d := NewDirectory()
	require.NoError(t, d.LoadFile(path))
	assert.Equal(t, 2, d.Len())

	err = d.LoadFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 0, d.Len())
}
