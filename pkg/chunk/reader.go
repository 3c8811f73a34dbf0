// pkg/chunk/reader.go

package chunk

import (
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
)

// Reader decodes little-endian typed values from one chunk.
type Reader struct {
	src  io.Reader
	page *Page
	buf  [16]byte
}

// NewReader returns a Reader consuming src from its current position.
// When src is a *Page the reader checks that no writer holds the page.
func NewReader(src io.Reader) *Reader {
	r := &Reader{src: src}
	if p, ok := src.(*Page); ok {
		r.page = p
	}
	return r
}

// OpenReader rewinds the named chunk and returns a Reader over it.
func (d *Directory) OpenReader(name string) (*Reader, error) {
	p, err := d.Get(name)
	if err != nil {
		return nil, err
	}
	if err = p.validateRead(); err != nil {
		return nil, errors.Wrapf(err, "open %q", name)
	}
	p.Rewind()
	return NewReader(p), nil
}

func (p *Page) validateRead() error {
	if p.released {
		return ErrReleased
	}
	if p.writing {
		return ErrAccessDenied
	}
	return nil
}

func (r *Reader) validateAccess() error {
	if r.page == nil {
		return nil
	}
	return r.page.validateRead()
}

// Remaining returns the unread bytes of a page-bound reader, or -1 when the
// source length is unknown.
func (r *Reader) Remaining() int {
	if r.page == nil {
		return -1
	}
	left := int64(r.page.Len()) - r.page.Pos()
	if left < 0 {
		return 0
	}
	return int(left)
}

// readFull fills dst entirely or fails with ErrEndOfData. Page-bound readers
// do not consume anything on failure.
func (r *Reader) readFull(dst []byte) error {
	if err := r.validateAccess(); err != nil {
		return err
	}
	if r.page != nil && r.Remaining() < len(dst) {
		return ErrEndOfData
	}
	if _, err := io.ReadFull(r.src, dst); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrEndOfData
		}
		return err
	}
	return nil
}

func (r *Reader) fixed(n int) ([]byte, error) {
	b := r.buf[:n]
	if err := r.readFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

// readN reads a length-prefixed body without trusting n for preallocation.
func (r *Reader) readN(n uint64) ([]byte, error) {
	if n > MaxChunkSize {
		return nil, ErrEndOfData
	}
	if r.page != nil || n <= 4096 {
		b := make([]byte, n)
		if err := r.readFull(b); err != nil {
			return nil, err
		}
		return b, nil
	}
	if err := r.validateAccess(); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(r.src, int64(n)))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) != n {
		return nil, ErrEndOfData
	}
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.fixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadByte()
	return int8(v), err
}

// ReadBool reads one byte, any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadByte()
	return v != 0, err
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.fixed(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.fixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadChar reads one UTF-16 code unit.
func (r *Reader) ReadChar() (rune, error) {
	v, err := r.ReadUint16()
	return rune(v), err
}

func (r *Reader) ReadDecimal() (Decimal, error) {
	b, err := r.fixed(16)
	if err != nil {
		return Decimal{}, err
	}
	return decimalFromBits(
		binary.LittleEndian.Uint32(b[0:4]),
		binary.LittleEndian.Uint32(b[4:8]),
		binary.LittleEndian.Uint32(b[8:12]),
		binary.LittleEndian.Uint32(b[12:16]),
	)
}

// ReadString reads a UTF-8 string preceded by its byte length as a uvarint.
func (r *Reader) ReadString() (string, error) {
	b, err := r.readPrefixed()
	return string(b), err
}

// ReadStringEncoded reads a string whose prefix counts bytes in enc.
// A nil enc means UTF-8.
func (r *Reader) ReadStringEncoded(enc encoding.Encoding) (string, error) {
	b, err := r.readPrefixed()
	if err != nil || enc == nil {
		return string(b), err
	}
	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "decode string")
	}
	return string(s), nil
}

func (r *Reader) readPrefixed() ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	return r.readN(n)
}

// ReadBytes fills dst[start:start+count].
func (r *Reader) ReadBytes(dst []byte, start, count int) error {
	if start < 0 || start > len(dst) {
		return argError("start", "%d outside [0, %d]", start, len(dst))
	}
	if count < 0 || count > len(dst)-start {
		return argError("count", "%d does not fit after %d in %d bytes", count, start, len(dst))
	}
	if count == 0 {
		return nil
	}
	return r.readFull(dst[start : start+count])
}

func (r *Reader) ReadPoint() (Point, error) {
	var v Point
	var err error
	if v.X, err = r.ReadInt32(); err != nil {
		return v, err
	}
	v.Y, err = r.ReadInt32()
	return v, err
}

func (r *Reader) ReadSize() (Size, error) {
	var v Size
	var err error
	if v.Width, err = r.ReadInt32(); err != nil {
		return v, err
	}
	v.Height, err = r.ReadInt32()
	return v, err
}

func (r *Reader) ReadRectangle() (Rectangle, error) {
	var v Rectangle
	var err error
	if v.X, err = r.ReadInt32(); err != nil {
		return v, err
	}
	if v.Y, err = r.ReadInt32(); err != nil {
		return v, err
	}
	if v.Width, err = r.ReadInt32(); err != nil {
		return v, err
	}
	v.Height, err = r.ReadInt32()
	return v, err
}

func (r *Reader) ReadPointF() (PointF, error) {
	var v PointF
	var err error
	if v.X, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	v.Y, err = r.ReadFloat32()
	return v, err
}

func (r *Reader) ReadSizeF() (SizeF, error) {
	var v SizeF
	var err error
	if v.Width, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	v.Height, err = r.ReadFloat32()
	return v, err
}

func (r *Reader) ReadRectangleF() (RectangleF, error) {
	var v RectangleF
	var err error
	if v.X, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	if v.Y, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	if v.Width, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	v.Height, err = r.ReadFloat32()
	return v, err
}

// ReadChunkHeader reads the tag and length that open every chunk record and
// returns the declared chunk name.
func (r *Reader) ReadChunkHeader() (string, int32, error) {
	tag, err := r.ReadString()
	if err != nil {
		return "", 0, err
	}
	if !strings.HasPrefix(tag, TagPrefix) || len(tag) == len(TagPrefix) {
		return "", 0, errors.Wrapf(ErrMalformedContainer, "bad chunk tag %q", tag)
	}
	length, err := r.ReadInt32()
	if err != nil {
		return "", 0, err
	}
	if length < 0 {
		return "", 0, errors.Wrapf(ErrMalformedContainer, "negative length %d for %s", length, tag)
	}
	return tag[len(TagPrefix):], length, nil
}
