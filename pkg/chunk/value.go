// pkg/chunk/value.go

package chunk

import (
	"encoding/binary"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

type Point struct {
	X, Y int32
}

type Size struct {
	Width, Height int32
}

type Rectangle struct {
	X, Y, Width, Height int32
}

type PointF struct {
	X, Y float32
}

type SizeF struct {
	Width, Height float32
}

type RectangleF struct {
	X, Y, Width, Height float32
}

// Decimal is a 96-bit magnitude scaled by 10^-Scale. It is stored as four
// int32 words: low, middle and high magnitude, then flags holding the scale
// in bits 16-23 and the sign in bit 31.
type Decimal struct {
	Lo, Mid, Hi uint32
	Scale       uint8
	Negative    bool
}

const maxDecimalScale = 28

var maxDecimalMagnitude = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

func decimalFromBits(lo, mid, hi, flags uint32) (Decimal, error) {
	scale := uint8(flags >> 16)
	if flags&0x7f00ffff != 0 || scale > maxDecimalScale {
		return Decimal{}, errors.Errorf("invalid decimal flags %#08x", flags)
	}
	return Decimal{Lo: lo, Mid: mid, Hi: hi, Scale: scale, Negative: flags&(1<<31) != 0}, nil
}

func (d Decimal) flags() uint32 {
	f := uint32(d.Scale) << 16
	if d.Negative {
		f |= 1 << 31
	}
	return f
}

// NewDecimal builds a Decimal worth unscaled * 10^-scale.
func NewDecimal(unscaled *big.Int, scale uint8) (Decimal, error) {
	if scale > maxDecimalScale {
		return Decimal{}, argError("scale", "%d above %d", scale, maxDecimalScale)
	}
	mag := new(big.Int).Abs(unscaled)
	if mag.Cmp(maxDecimalMagnitude) > 0 {
		return Decimal{}, argError("unscaled", "%s needs more than 96 bits", unscaled)
	}
	word := new(big.Int)
	mask := big.NewInt(math.MaxUint32)
	d := Decimal{Scale: scale, Negative: unscaled.Sign() < 0}
	d.Lo = uint32(word.And(mag, mask).Uint64())
	d.Mid = uint32(word.And(word.Rsh(mag, 32), mask).Uint64())
	d.Hi = uint32(word.Rsh(mag, 64).Uint64())
	return d, nil
}

// ParseDecimal parses a plain decimal literal such as "-12.50".
func ParseDecimal(s string) (Decimal, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	var scale int
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		scale = len(digits) - i - 1
		digits = digits[:i] + digits[i+1:]
	}
	if digits == "" || scale > maxDecimalScale {
		return Decimal{}, argError("s", "invalid decimal %q", s)
	}
	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok || unscaled.Sign() < 0 {
		return Decimal{}, argError("s", "invalid decimal %q", s)
	}
	if strings.HasPrefix(s, "-") {
		unscaled.Neg(unscaled)
	}
	return NewDecimal(unscaled, uint8(scale))
}

// Unscaled returns the signed integer value before scaling.
func (d Decimal) Unscaled() *big.Int {
	v := new(big.Int).SetUint64(uint64(d.Hi))
	v.Lsh(v, 32).Or(v, new(big.Int).SetUint64(uint64(d.Mid)))
	v.Lsh(v, 32).Or(v, new(big.Int).SetUint64(uint64(d.Lo)))
	if d.Negative {
		v.Neg(v)
	}
	return v
}

func (d Decimal) String() string {
	digits := new(big.Int).Abs(d.Unscaled()).String()
	if d.Scale > 0 {
		if pad := int(d.Scale) + 1 - len(digits); pad > 0 {
			digits = strings.Repeat("0", pad) + digits
		}
		cut := len(digits) - int(d.Scale)
		digits = digits[:cut] + "." + digits[cut:]
	}
	if d.Negative {
		return "-" + digits
	}
	return digits
}

// ReadValue reads a T with a fixed binary size (no int, uint, pointers,
// slices or maps). Plain 1, 2, 4 and 8 byte scalars are decoded directly,
// a Decimal as by ReadDecimal, anything else field by field in declaration
// order. Structs and arrays holding a Decimal are rejected.
func ReadValue[T any](r *Reader) (T, error) {
	var v T
	if d, ok := any(&v).(*Decimal); ok {
		var err error
		*d, err = r.ReadDecimal()
		return v, err
	}
	size := fixedSize(v)
	if size <= 0 {
		return v, argError("T", "%T has no fixed binary size", v)
	}
	var raw []byte
	if size <= len(r.buf) {
		raw = r.buf[:size]
	} else {
		raw = make([]byte, size)
	}
	if err := r.readFull(raw); err != nil {
		return v, err
	}
	if decodeScalar(&v, raw) {
		return v, nil
	}
	if _, err := binary.Decode(raw, binary.LittleEndian, &v); err != nil {
		return v, errors.Wrapf(err, "decode %T", v)
	}
	return v, nil
}

// WriteValue is the counterpart of ReadValue.
func WriteValue[T any](w *Writer, v T) error {
	if d, ok := any(v).(Decimal); ok {
		return w.WriteDecimal(d)
	}
	size := fixedSize(v)
	if size <= 0 {
		return argError("T", "%T has no fixed binary size", v)
	}
	var raw []byte
	if size <= len(w.buf) {
		raw = w.buf[:size]
	} else {
		raw = make([]byte, size)
	}
	if !encodeScalar(v, raw) {
		if _, err := binary.Encode(raw, binary.LittleEndian, v); err != nil {
			return errors.Wrapf(err, "encode %T", v)
		}
	}
	return w.write(raw)
}

// fixedSize returns the encoded size of v, or -1 when T is not a plain value.
func fixedSize[T any](v T) int {
	t := reflect.TypeFor[T]()
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Interface:
		return -1
	}
	if holdsDecimal(t) {
		return -1
	}
	return binary.Size(v)
}

var decimalType = reflect.TypeFor[Decimal]()

// holdsDecimal reports whether t embeds a Decimal, whose flags word has no
// field by field encoding.
func holdsDecimal(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
		return holdsDecimal(t.Elem())
	case reflect.Struct:
		if t.ConvertibleTo(decimalType) {
			return true
		}
		for i := 0; i < t.NumField(); i++ {
			if holdsDecimal(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func decodeScalar(ptr any, b []byte) bool {
	le := binary.LittleEndian
	switch len(b) {
	case 1:
		switch p := ptr.(type) {
		case *uint8:
			*p = b[0]
		case *int8:
			*p = int8(b[0])
		case *bool:
			*p = b[0] != 0
		default:
			return false
		}
	case 2:
		switch p := ptr.(type) {
		case *uint16:
			*p = le.Uint16(b)
		case *int16:
			*p = int16(le.Uint16(b))
		default:
			return false
		}
	case 4:
		switch p := ptr.(type) {
		case *uint32:
			*p = le.Uint32(b)
		case *int32:
			*p = int32(le.Uint32(b))
		case *float32:
			*p = math.Float32frombits(le.Uint32(b))
		default:
			return false
		}
	case 8:
		switch p := ptr.(type) {
		case *uint64:
			*p = le.Uint64(b)
		case *int64:
			*p = int64(le.Uint64(b))
		case *float64:
			*p = math.Float64frombits(le.Uint64(b))
		default:
			return false
		}
	default:
		return false
	}
	return true
}

func encodeScalar(v any, b []byte) bool {
	le := binary.LittleEndian
	switch len(b) {
	case 1:
		switch x := v.(type) {
		case uint8:
			b[0] = x
		case int8:
			b[0] = uint8(x)
		case bool:
			b[0] = 0
			if x {
				b[0] = 1
			}
		default:
			return false
		}
	case 2:
		switch x := v.(type) {
		case uint16:
			le.PutUint16(b, x)
		case int16:
			le.PutUint16(b, uint16(x))
		default:
			return false
		}
	case 4:
		switch x := v.(type) {
		case uint32:
			le.PutUint32(b, x)
		case int32:
			le.PutUint32(b, uint32(x))
		case float32:
			le.PutUint32(b, math.Float32bits(x))
		default:
			return false
		}
	case 8:
		switch x := v.(type) {
		case uint64:
			le.PutUint64(b, x)
		case int64:
			le.PutUint64(b, uint64(x))
		case float64:
			le.PutUint64(b, math.Float64bits(x))
		default:
			return false
		}
	default:
		return false
	}
	return true
}
