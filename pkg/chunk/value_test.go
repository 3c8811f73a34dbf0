package chunk

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal(t *testing.T) {
	for _, s := range []string{"0", "-12.50", "0.001", "79228162514264337593543950335", "-0.0000000000000000000000000001"} {
		d, err := ParseDecimal(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, d.String())
	}

	d, err := ParseDecimal("-12.50")
	require.NoError(t, err)
	assert.Equal(t, Decimal{Lo: 1250, Scale: 2, Negative: true}, d)
	assert.Equal(t, big.NewInt(-1250), d.Unscaled())

	for _, s := range []string{"", "-", "1.2.3", "abc", "+-1", "1e5", "0.00000000000000000000000000001"} {
		_, err := ParseDecimal(s)
		assert.ErrorIs(t, err, ErrInvalidArgument, s)
	}

	tooBig := new(big.Int).Lsh(big.NewInt(1), 96)
	_, err = NewDecimal(tooBig, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewDecimal(big.NewInt(1), 29)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	wide, err := NewDecimal(new(big.Int).Sub(tooBig, big.NewInt(1)), 0)
	require.NoError(t, err)
	assert.Equal(t, Decimal{Lo: 0xffffffff, Mid: 0xffffffff, Hi: 0xffffffff}, wide)
}

func TestDecimalRoundTrip(t *testing.T) {
	d := NewDirectory()
	w := NewWriter(d)
	require.NoError(t, w.SetCurrentChunk("money"))
	want, err := ParseDecimal("-123456789012345678.9012")
	require.NoError(t, err)
	require.NoError(t, w.WriteDecimal(want))
	assert.ErrorIs(t, w.WriteDecimal(Decimal{Scale: 30}), ErrInvalidArgument)
	require.NoError(t, w.Close())

	p, err := d.Get("money")
	require.NoError(t, err)
	require.Equal(t, 16, p.Len())
	assert.Equal(t, uint32(4<<16|1<<31), binary.LittleEndian.Uint32(p.Bytes()[12:]))

	r, err := d.OpenReader("money")
	require.NoError(t, err)
	got, err := r.ReadDecimal()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "-123456789012345678.9012", got.String())
}

func TestReadDecimalBadFlags(t *testing.T) {
	for _, flags := range []uint32{1, 29 << 16, 1 << 30} {
		raw := make([]byte, 16)
		binary.LittleEndian.PutUint32(raw[12:], flags)
		_, err := NewReader(NewPage(raw)).ReadDecimal()
		assert.Error(t, err, "flags %#x", flags)
	}
}

type price struct {
	Amount Decimal
	Units  uint16
}

func TestGenericDecimal(t *testing.T) {
	d := NewDirectory()
	w := NewWriter(d)
	require.NoError(t, w.SetCurrentChunk("money"))
	want, err := ParseDecimal("-12.50")
	require.NoError(t, err)
	require.NoError(t, w.WriteDecimal(want))
	require.NoError(t, WriteValue(w, want))
	assert.ErrorIs(t, WriteValue(w, Decimal{Scale: 29}), ErrInvalidArgument)
	assert.ErrorIs(t, WriteValue(w, price{Amount: want}), ErrInvalidArgument)
	assert.ErrorIs(t, WriteValue(w, [2]Decimal{}), ErrInvalidArgument)
	require.NoError(t, w.Close())

	p, err := d.Get("money")
	require.NoError(t, err)
	require.Equal(t, 32, p.Len())
	assert.Equal(t, p.Bytes()[:16], p.Bytes()[16:])

	r, err := d.OpenReader("money")
	require.NoError(t, err)
	got, err := ReadValue[Decimal](r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	got, err = r.ReadDecimal()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 0, r.Remaining())

	_, err = ReadValue[price](r)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

type vertex struct {
	Pos   PointF
	Color uint32
	Flags [2]uint8
}

func TestGenericValues(t *testing.T) {
	d := NewDirectory()
	w := NewWriter(d)

	assert.ErrorIs(t, WriteValue(w, int32(1)), ErrNoActiveChunk)
	require.NoError(t, w.SetCurrentChunk("v"))

	require.NoError(t, WriteValue(w, int8(-1)))
	require.NoError(t, WriteValue(w, true))
	require.NoError(t, WriteValue(w, uint16(0xbeef)))
	require.NoError(t, WriteValue(w, int32(-42)))
	require.NoError(t, WriteValue(w, float32(1.25)))
	require.NoError(t, WriteValue(w, uint64(1<<40)))
	require.NoError(t, WriteValue(w, -2.5))
	require.NoError(t, WriteValue(w, Point{X: 3, Y: -4}))
	require.NoError(t, WriteValue(w, [3]uint16{1, 2, 3}))
	v := vertex{Pos: PointF{X: 1, Y: 2}, Color: 0xff00ff00, Flags: [2]uint8{7, 8}}
	require.NoError(t, WriteValue(w, v))
	assert.ErrorIs(t, WriteValue(w, 1), ErrInvalidArgument)
	assert.ErrorIs(t, WriteValue(w, &v), ErrInvalidArgument)
	assert.ErrorIs(t, WriteValue(w, []byte{1}), ErrInvalidArgument)
	require.NoError(t, w.Close())

	r, err := d.OpenReader("v")
	require.NoError(t, err)
	i8, err := ReadValue[int8](r)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)
	b, err := ReadValue[bool](r)
	require.NoError(t, err)
	assert.True(t, b)
	u16, err := ReadValue[uint16](r)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xbeef), u16)
	i32, err := ReadValue[int32](r)
	require.NoError(t, err)
	assert.Equal(t, int32(-42), i32)
	f32, err := ReadValue[float32](r)
	require.NoError(t, err)
	assert.Equal(t, float32(1.25), f32)
	u64, err := ReadValue[uint64](r)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<40), u64)
	f64, err := ReadValue[float64](r)
	require.NoError(t, err)
	assert.Equal(t, -2.5, f64)

	// the generic path agrees with the dedicated reader
	pt, err := r.ReadPoint()
	require.NoError(t, err)
	assert.Equal(t, Point{X: 3, Y: -4}, pt)

	arr, err := ReadValue[[3]uint16](r)
	require.NoError(t, err)
	assert.Equal(t, [3]uint16{1, 2, 3}, arr)
	got, err := ReadValue[vertex](r)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = ReadValue[int](r)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ReadValue[uint32](r)
	assert.ErrorIs(t, err, ErrEndOfData)
}

type level uint16

func TestGenericNamedScalar(t *testing.T) {
	d := NewDirectory()
	w := NewWriter(d)
	require.NoError(t, w.SetCurrentChunk("n"))
	require.NoError(t, WriteValue(w, level(513)))
	require.NoError(t, w.Close())

	p, err := d.Get("n")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, p.Bytes())

	r, err := d.OpenReader("n")
	require.NoError(t, err)
	got, err := ReadValue[level](r)
	require.NoError(t, err)
	assert.Equal(t, level(513), got)
}
