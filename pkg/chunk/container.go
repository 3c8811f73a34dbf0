// pkg/chunk/container.go

package chunk

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"GorChunk/pkg/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type loadOptions struct {
	filter  func(name string) bool
	maxSize int64
}

// LoadOption tunes Load, LoadFrom and LoadFile.
type LoadOption func(*loadOptions)

// WithFilter loads only the chunks for which fn returns true, the others
// are skipped by offset without reading their bodies.
func WithFilter(fn func(name string) bool) LoadOption {
	return func(o *loadOptions) {
		o.filter = fn
	}
}

// WithMaxChunkSize treats chunks longer than n bytes as malformed.
func WithMaxChunkSize(n int) LoadOption {
	return func(o *loadOptions) {
		o.maxSize = int64(n)
	}
}

// Load replaces the content of the directory with the container in data.
// Zero bytes produce an empty directory. On error the directory is left empty.
func (d *Directory) Load(data []byte, opts ...LoadOption) error {
	return d.LoadFrom(bytes.NewReader(data), opts...)
}

// LoadFile loads the container stored at path.
func (d *Directory) LoadFile(path string, opts ...LoadOption) error {
	d.ClearChunks()
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return d.LoadFrom(f, opts...)
}

// LoadFrom loads a container that starts at the current position of r and
// runs to its end. r must also implement io.Seeker, since chunk bodies are
// found through absolute offsets.
func (d *Directory) LoadFrom(r io.Reader, opts ...LoadOption) error {
	d.ClearChunks()
	if r == nil {
		return argError("r", "must not be nil")
	}
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return errors.Wrapf(ErrNotSeekable, "load from %T", r)
	}
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := d.load(rs, &o); err != nil {
		d.ClearChunks()
		return err
	}
	logger.Debugf("loaded %d chunks (%d bytes)", d.Len(), d.UsedMemory())
	return nil
}

func (d *Directory) load(rs io.ReadSeeker, o *loadOptions) error {
	return walkTable(rs, func(e Entry, body io.Reader) error {
		if o.filter != nil && !o.filter(e.Name) {
			logger.Debugf("skip chunk %s at %d", e.Name, e.Offset)
			return nil
		}
		if o.maxSize > 0 && int64(e.Length) > o.maxSize {
			return malformed(nil, "chunk %s is %d bytes, limit is %d", e.Name, e.Length, o.maxSize)
		}
		key := foldName(e.Name)
		if _, ok := d.pages[key]; ok {
			return malformed(nil, "duplicate chunk %s", e.Name)
		}
		data := make([]byte, e.Length)
		if _, err := io.ReadFull(body, data); err != nil {
			return malformed(err, "read chunk %s", e.Name)
		}
		d.put(key, e.Name, NewPage(data))
		return nil
	})
}

// ReadTable parses the header and directory table of the container starting
// at the current position of rs, without reading any chunk body.
func ReadTable(rs io.ReadSeeker) ([]Entry, error) {
	var entries []Entry
	err := walkTable(rs, func(e Entry, _ io.Reader) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// walkTable validates the header and visits every table entry with rs
// positioned at the first byte of the chunk body. Offsets are relative to
// the position of rs on entry.
func walkTable(rs io.ReadSeeker, visit func(e Entry, body io.Reader) error) error {
	base, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(ErrNotSeekable, err.Error())
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(ErrNotSeekable, err.Error())
	}
	size := end - base
	if size == 0 {
		return nil
	}
	if _, err = rs.Seek(base, io.SeekStart); err != nil {
		return errors.Wrap(ErrNotSeekable, err.Error())
	}

	r := NewReader(rs)
	raw := make([]byte, tableEnd(0))
	if err := r.ReadBytes(raw, 0, len(raw)); err != nil {
		return malformed(err, "read header")
	}
	hdr := utils.ReadBuffer(raw)
	if magic := hdr.Get(len(Magic)); string(magic) != Magic {
		return malformed(nil, "bad magic %q", magic)
	}
	count := int32(hdr.Get32())
	if count < 0 || tableEnd(int(count)) > size {
		return malformed(nil, "chunk count %d does not fit in %d bytes", count, size)
	}
	bodies := tableEnd(int(count))
	raw = make([]byte, bodies-tableEnd(0))
	if err := r.ReadBytes(raw, 0, len(raw)); err != nil {
		return malformed(err, "read table")
	}
	table := utils.ReadBuffer(raw)
	for i := int32(0); table.HasMore(); i++ {
		off := int64(table.Get64())
		if off < bodies || off >= size {
			return malformed(nil, "table entry %d points to %d, outside [%d, %d)", i, off, bodies, size)
		}
		if _, err = rs.Seek(base+off, io.SeekStart); err != nil {
			return malformed(err, "seek to chunk %d", i)
		}
		name, length, err := r.ReadChunkHeader()
		if err != nil {
			return malformed(err, "read chunk %d header", i)
		}
		pos, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return malformed(err, "locate chunk %s", name)
		}
		if int64(length) > end-pos {
			return malformed(nil, "chunk %s claims %d bytes, %d left", name, length, end-pos)
		}
		e := Entry{Name: name, Offset: off, Length: length}
		if err = visit(e, io.LimitReader(rs, int64(length))); err != nil {
			return err
		}
	}
	return nil
}

type planned struct {
	Entry
	page *Page
}

// plan computes the final layout of every non-empty chunk without any I/O.
func (d *Directory) plan() []planned {
	var out []planned
	d.Range(func(name string, p *Page) bool {
		if p.Len() == 0 {
			logger.Debugf("chunk %s is empty, not saved", name)
			return true
		}
		out = append(out, planned{Entry: Entry{Name: name, Length: int32(p.Len())}, page: p})
		return true
	})
	off := tableEnd(len(out))
	for i := range out {
		out[i].Offset = off
		off += recordSize(out[i].Name, int(out[i].Length))
	}
	return out
}

// Layout returns the table Save would write for the current content.
func (d *Directory) Layout() []Entry {
	plan := d.plan()
	entries := make([]Entry, len(plan))
	for i, p := range plan {
		entries[i] = p.Entry
	}
	return entries
}

// Save serializes all non-empty chunks. It returns no bytes when there is
// nothing to save.
func (d *Directory) Save() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveTo writes the container to w and returns the number of bytes written.
func (d *Directory) SaveTo(w io.Writer) (int64, error) {
	if w == nil {
		return 0, errors.Wrap(ErrNotWritable, "save to nil writer")
	}
	plan := d.plan()
	if len(plan) == 0 {
		logger.Debugf("no chunk to save")
		return 0, nil
	}

	hdr := utils.NewBuffer(uint32(tableEnd(len(plan))))
	hdr.Put([]byte(Magic))
	hdr.Put32(uint32(len(plan)))
	for _, p := range plan {
		hdr.Put64(uint64(p.Offset))
	}
	n, err := w.Write(hdr.Bytes())
	written := int64(n)
	if err != nil {
		return written, errors.Wrap(err, "write table")
	}

	for _, p := range plan {
		if written != p.Offset {
			return written, errors.Errorf("chunk %s lands at %d, table says %d", p.Name, written, p.Offset)
		}
		tag := chunkTag(p.Name)
		rec := utils.NewBuffer(uint32(recordSize(p.Name, 0)))
		rec.PutUvarint(uint64(len(tag)))
		rec.Put([]byte(tag))
		rec.Put32(uint32(p.Length))
		n, err = w.Write(rec.Bytes())
		written += int64(n)
		if err != nil {
			return written, errors.Wrapf(err, "write chunk %s", p.Name)
		}
		p.page.Rewind()
		m, err := io.Copy(w, p.page)
		written += m
		if err != nil {
			return written, errors.Wrapf(err, "write chunk %s", p.Name)
		}
	}
	logger.Debugf("saved %d chunks in %d bytes", len(plan), written)
	return written, nil
}

// SaveFile writes the container next to path and renames it into place.
func (d *Directory) SaveFile(path string) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	if _, err = d.SaveTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "sync %s", tmp)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "close %s", tmp)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}
