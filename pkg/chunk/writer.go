// pkg/chunk/writer.go

package chunk

import (
	"encoding/binary"
	"io"
	"math"

	"GorChunk/pkg/utils"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
)

// Writer appends little-endian typed values to the current chunk, either in
// a Directory or as sequential records on a raw stream.
type Writer struct {
	dir    *Directory
	stream io.WriteSeeker

	name string
	page *Page

	lengthAt int64 // stream position of the length field of the open record
	written  int64 // payload bytes of the open record

	buf [16]byte
}

// NewWriter returns a Writer filling chunks of d.
func NewWriter(d *Directory) *Writer {
	return &Writer{dir: d}
}

// NewStreamWriter returns a Writer emitting bare chunk records to ws. The
// length of each record is patched in when the chunk is finished.
func NewStreamWriter(ws io.WriteSeeker) (*Writer, error) {
	if ws == nil {
		return nil, errors.Wrap(ErrNotWritable, "nil stream")
	}
	return &Writer{stream: ws}, nil
}

// CurrentChunk returns the name of the open chunk, or "" when none is open.
func (w *Writer) CurrentChunk() string {
	return w.name
}

// SetCurrentChunk finishes the open chunk and opens name. An empty name
// only finishes the open chunk.
func (w *Writer) SetCurrentChunk(name string) error {
	if err := w.finish(); err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	if w.stream != nil {
		return w.beginRecord(name)
	}

	p, err := w.dir.Get(name)
	if errors.Is(err, ErrChunkNotFound) {
		p, err = w.dir.CreateChunk(name, 0)
	}
	if err != nil {
		return err
	}
	if !p.Writable() {
		return errors.Wrapf(ErrNotWritable, "chunk %q", name)
	}
	if _, err = p.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	p.writing = true
	w.page = p
	w.name = name
	return nil
}

func (w *Writer) beginRecord(name string) error {
	start, err := w.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(ErrNotSeekable, err.Error())
	}
	tag := chunkTag(name)
	hdr := utils.NewBuffer(uint32(recordSize(name, 0)))
	hdr.PutUvarint(uint64(len(tag)))
	hdr.Put([]byte(tag))
	w.lengthAt = start + int64(hdr.Offset())
	hdr.Put32(0)
	if _, err = w.stream.Write(hdr.Bytes()); err != nil {
		return errors.Wrapf(err, "write header of %s", name)
	}
	logger.Debugf("begin chunk %s at %d", name, start)
	w.name = name
	w.written = 0
	return nil
}

func (w *Writer) finish() error {
	if w.name == "" {
		return nil
	}
	name := w.name
	w.name = ""
	if w.stream == nil {
		if w.page != nil {
			w.page.writing = false
			w.page = nil
		}
		return nil
	}
	end, err := w.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(ErrNotSeekable, err.Error())
	}
	if _, err = w.stream.Seek(w.lengthAt, io.SeekStart); err != nil {
		return errors.Wrap(ErrNotSeekable, err.Error())
	}
	binary.LittleEndian.PutUint32(w.buf[:4], uint32(w.written))
	if _, err = w.stream.Write(w.buf[:4]); err != nil {
		return errors.Wrapf(err, "patch length of %s", name)
	}
	if _, err = w.stream.Seek(end, io.SeekStart); err != nil {
		return errors.Wrap(ErrNotSeekable, err.Error())
	}
	logger.Debugf("end chunk %s with %d bytes", name, w.written)
	return nil
}

// Close finishes the open chunk. The Writer can be reused afterwards.
func (w *Writer) Close() error {
	return w.finish()
}

func (w *Writer) write(b []byte) error {
	if w.name == "" {
		return ErrNoActiveChunk
	}
	if w.stream == nil {
		_, err := w.page.Write(b)
		return err
	}
	if w.written+int64(len(b)) > MaxChunkSize {
		return argError("length", "chunk %s would exceed %d bytes", w.name, MaxChunkSize)
	}
	n, err := w.stream.Write(b)
	w.written += int64(n)
	return err
}

// Write implements io.Writer on the current chunk.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteBytes appends buf[start:start+length]. length must be at least 1.
func (w *Writer) WriteBytes(buf []byte, start, length int) error {
	if w.name == "" {
		return ErrNoActiveChunk
	}
	if start < 0 {
		return argError("start", "%d is negative", start)
	}
	if length < 1 || length > len(buf) {
		return argError("length", "%d outside [1, %d]", length, len(buf))
	}
	if start > len(buf)-length {
		return argError("start", "%d leaves no room for %d of %d bytes", start, length, len(buf))
	}
	return w.write(buf[start : start+length])
}

func (w *Writer) WriteByte(b byte) error {
	w.buf[0] = b
	return w.write(w.buf[:1])
}

func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteByte(v)
}

func (w *Writer) WriteInt8(v int8) error {
	return w.WriteByte(byte(v))
}

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

func (w *Writer) WriteUint16(v uint16) error {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	return w.write(w.buf[:2])
}

func (w *Writer) WriteInt16(v int16) error {
	return w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	return w.write(w.buf[:8])
}

func (w *Writer) WriteInt64(v int64) error {
	return w.WriteUint64(uint64(v))
}

func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) error {
	return w.WriteUint64(math.Float64bits(v))
}

// WriteChar writes c as one UTF-16 code unit.
func (w *Writer) WriteChar(c rune) error {
	if c < 0 || c > 0xffff {
		return argError("c", "%U does not fit in one UTF-16 code unit", c)
	}
	return w.WriteUint16(uint16(c))
}

func (w *Writer) WriteDecimal(d Decimal) error {
	if d.Scale > maxDecimalScale {
		return argError("d", "scale %d above %d", d.Scale, maxDecimalScale)
	}
	le := binary.LittleEndian
	le.PutUint32(w.buf[0:4], d.Lo)
	le.PutUint32(w.buf[4:8], d.Mid)
	le.PutUint32(w.buf[8:12], d.Hi)
	le.PutUint32(w.buf[12:16], d.flags())
	return w.write(w.buf[:16])
}

// WriteString writes s as UTF-8 preceded by its byte length as a uvarint.
func (w *Writer) WriteString(s string) error {
	return w.writePrefixed([]byte(s))
}

// WriteStringEncoded writes s converted to enc. A nil enc means UTF-8.
func (w *Writer) WriteStringEncoded(s string, enc encoding.Encoding) error {
	if enc == nil {
		return w.WriteString(s)
	}
	if w.name == "" {
		return ErrNoActiveChunk
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return errors.Wrap(err, "encode string")
	}
	return w.writePrefixed(b)
}

func (w *Writer) writePrefixed(b []byte) error {
	if w.name == "" {
		return ErrNoActiveChunk
	}
	n := binary.PutUvarint(w.buf[:], uint64(len(b)))
	if err := w.write(w.buf[:n]); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return w.write(b)
}

func (w *Writer) WritePoint(v Point) error {
	return w.writeInt32s(v.X, v.Y)
}

func (w *Writer) WriteSize(v Size) error {
	return w.writeInt32s(v.Width, v.Height)
}

func (w *Writer) WriteRectangle(v Rectangle) error {
	return w.writeInt32s(v.X, v.Y, v.Width, v.Height)
}

func (w *Writer) WritePointF(v PointF) error {
	return w.writeFloat32s(v.X, v.Y)
}

func (w *Writer) WriteSizeF(v SizeF) error {
	return w.writeFloat32s(v.Width, v.Height)
}

func (w *Writer) WriteRectangleF(v RectangleF) error {
	return w.writeFloat32s(v.X, v.Y, v.Width, v.Height)
}

func (w *Writer) writeInt32s(vs ...int32) error {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(w.buf[4*i:], uint32(v))
	}
	return w.write(w.buf[:4*len(vs)])
}

func (w *Writer) writeFloat32s(vs ...float32) error {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(w.buf[4*i:], math.Float32bits(v))
	}
	return w.write(w.buf[:4*len(vs)])
}
