// pkg/object/bwlimit.go

package object

import (
	"io"

	"github.com/juju/ratelimit"
	"github.com/pkg/errors"
)

type limitedReader struct {
	io.Reader
	r *ratelimit.Bucket
}

func (l *limitedReader) Read(buf []byte) (int, error) {
	n, err := l.Reader.Read(buf)
	if l.r != nil && n > 0 {
		l.r.Wait(int64(n))
	}
	return n, err
}

// Seek calls the Seek in the underlying reader.
func (l *limitedReader) Seek(offset int64, whence int) (int64, error) {
	if s, ok := l.Reader.(io.Seeker); ok {
		return s.Seek(offset, whence)
	}
	return 0, errors.Errorf("%T does not support Seek()", l.Reader)
}

// Close closes the underlying reader
func (l *limitedReader) Close() error {
	if rc, ok := l.Reader.(io.Closer); ok {
		return rc.Close()
	}
	return nil
}

type bwlimit struct {
	ObjectStorage
	upLimit   *ratelimit.Bucket
	downLimit *ratelimit.Bucket
}

// NewLimited throttles uploads to up and downloads to down bytes per second.
// A limit of 0 disables throttling in that direction.
func NewLimited(o ObjectStorage, up, down int64) ObjectStorage {
	bw := &bwlimit{o, nil, nil}
	if up > 0 {
		// there are overheads coming from the transport
		bw.upLimit = ratelimit.NewBucketWithRate(float64(up)*0.85, up)
	}
	if down > 0 {
		bw.downLimit = ratelimit.NewBucketWithRate(float64(down)*0.85, down)
	}
	return bw
}

func (p *bwlimit) Get(key string, off, limit int64) (io.ReadCloser, error) {
	r, err := p.ObjectStorage.Get(key, off, limit)
	if err != nil {
		return nil, err
	}
	return &limitedReader{r, p.downLimit}, nil
}

func (p *bwlimit) Put(key string, in io.Reader) error {
	in = &limitedReader{in, p.upLimit}
	return p.ObjectStorage.Put(key, in)
}
