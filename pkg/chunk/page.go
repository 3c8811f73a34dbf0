// pkg/chunk/page.go

package chunk

import (
	"io"

	"github.com/pkg/errors"
)

// Page is the owned, growable buffer backing one chunk, plus a cursor.
// It behaves like an in-memory file: writes past the end extend it and
// seeking beyond the end is allowed.
type Page struct {
	data     []byte
	off      int64
	readOnly bool
	released bool
	writing  bool
}

// NewPage wraps data as a writable page positioned at 0.
func NewPage(data []byte) *Page {
	return &Page{data: data}
}

// NewReadOnlyPage wraps data as a page that rejects writes.
func NewReadOnlyPage(data []byte) *Page {
	return &Page{data: data, readOnly: true}
}

func newPageSize(hint int) *Page {
	if hint < 0 {
		hint = 0
	}
	return &Page{data: make([]byte, 0, hint)}
}

// Len returns the number of bytes held by the page.
func (p *Page) Len() int {
	return len(p.data)
}

// Pos returns the cursor position.
func (p *Page) Pos() int64 {
	return p.off
}

// Bytes returns the page content. The slice is only valid until the next
// write or until the page is released.
func (p *Page) Bytes() []byte {
	return p.data
}

func (p *Page) Writable() bool {
	return !p.readOnly && !p.released
}

func (p *Page) Released() bool {
	return p.released
}

// Writing reports whether a Writer currently holds the page.
func (p *Page) Writing() bool {
	return p.writing
}

func (p *Page) Read(buf []byte) (int, error) {
	n, err := p.ReadAt(buf, p.off)
	p.off += int64(n)
	return n, err
}

func (p *Page) ReadAt(buf []byte, off int64) (int, error) {
	if p.released {
		return 0, ErrReleased
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if off >= int64(len(p.data)) {
		return 0, io.EOF
	}
	n := copy(buf, p.data[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (p *Page) ReadByte() (byte, error) {
	if p.released {
		return 0, ErrReleased
	}
	if p.off >= int64(len(p.data)) {
		return 0, io.EOF
	}
	b := p.data[p.off]
	p.off++
	return b, nil
}

func (p *Page) Write(buf []byte) (int, error) {
	if p.released {
		return 0, ErrReleased
	}
	if p.readOnly {
		return 0, ErrNotWritable
	}
	end := p.off + int64(len(buf))
	if end > MaxChunkSize {
		return 0, errors.Wrapf(ErrInvalidArgument, "page would grow to %d bytes", end)
	}
	if end > int64(len(p.data)) {
		p.grow(int(end))
	}
	n := copy(p.data[p.off:], buf)
	p.off += int64(n)
	return n, nil
}

func (p *Page) WriteByte(b byte) error {
	_, err := p.Write([]byte{b})
	return err
}

func (p *Page) Seek(offset int64, whence int) (int64, error) {
	if p.released {
		return 0, ErrReleased
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = p.off + offset
	case io.SeekEnd:
		abs = int64(len(p.data)) + offset
	default:
		return 0, errors.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	p.off = abs
	return abs, nil
}

// Rewind moves the cursor back to the first byte.
func (p *Page) Rewind() {
	p.off = 0
}

// Truncate discards everything from n on.
func (p *Page) Truncate(n int) error {
	if p.released {
		return ErrReleased
	}
	if p.readOnly {
		return ErrNotWritable
	}
	if n < 0 || n > len(p.data) {
		return argError("n", "%d outside [0, %d]", n, len(p.data))
	}
	p.data = p.data[:n]
	if p.off > int64(n) {
		p.off = int64(n)
	}
	return nil
}

// Release drops the page content. Any later access fails with ErrReleased.
func (p *Page) Release() {
	p.data = nil
	p.off = 0
	p.released = true
	p.writing = false
}

func (p *Page) grow(n int) {
	if n <= cap(p.data) {
		l := len(p.data)
		p.data = p.data[:n]
		clear(p.data[l:])
		return
	}
	c := 2 * cap(p.data)
	if c < n {
		c = n
	}
	data := make([]byte, n, c)
	copy(data, p.data)
	p.data = data
}
