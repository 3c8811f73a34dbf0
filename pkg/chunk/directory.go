// pkg/chunk/directory.go

package chunk

import (
	"github.com/pkg/errors"
)

// maxPageLen bounds the pages a directory accepts.
var maxPageLen int64 = MaxChunkSize

func checkPageLen(p *Page) error {
	if int64(p.Len()) > maxPageLen {
		return argError("page", "%d bytes exceed %d", p.Len(), maxPageLen)
	}
	return nil
}

type item struct {
	name string // as declared by the caller or read from the container
	page *Page
}

// Directory owns the chunks of one container. Keys are case-insensitive and
// iteration follows insertion order, which is also the order chunks are
// written by Save.
//
// A Directory is not safe for concurrent use.
type Directory struct {
	pages map[string]*item
	order []string
}

// NewDirectory returns an empty container.
func NewDirectory() *Directory {
	return &Directory{pages: make(map[string]*item)}
}

// CreateChunk registers a new empty chunk and returns its page.
// sizeHint only preallocates capacity.
func (d *Directory) CreateChunk(name string, sizeHint int) (*Page, error) {
	if name == "" {
		return nil, argError("name", "must not be empty")
	}
	if sizeHint < 0 || sizeHint > MaxChunkSize {
		return nil, argError("sizeHint", "%d outside [0, %d]", sizeHint, MaxChunkSize)
	}
	key := foldName(name)
	if _, ok := d.pages[key]; ok {
		return nil, errors.Wrapf(ErrDuplicateChunk, "create %q", name)
	}
	p := newPageSize(sizeHint)
	d.put(key, name, p)
	return p, nil
}

// AddChunk registers an existing page under name. The directory takes
// ownership of the page.
func (d *Directory) AddChunk(name string, p *Page) error {
	if name == "" {
		return argError("name", "must not be empty")
	}
	if p == nil {
		return argError("page", "must not be nil")
	}
	if !p.Writable() {
		return errors.Wrapf(ErrNotWritable, "add %q", name)
	}
	if err := checkPageLen(p); err != nil {
		return err
	}
	key := foldName(name)
	if _, ok := d.pages[key]; ok {
		return errors.Wrapf(ErrDuplicateChunk, "add %q", name)
	}
	d.put(key, name, p)
	return nil
}

// DestroyChunk removes the chunk and releases its page.
func (d *Directory) DestroyChunk(name string) error {
	key := foldName(name)
	it, ok := d.pages[key]
	if !ok {
		return errors.Wrapf(ErrChunkNotFound, "destroy %q", name)
	}
	d.delete(key, it)
	logger.Debugf("destroy chunk %s (%d bytes)", it.name, it.page.Len())
	return nil
}

func (d *Directory) HasChunk(name string) bool {
	_, ok := d.pages[foldName(name)]
	return ok
}

// ClearChunks releases every page and empties the directory.
func (d *Directory) ClearChunks() {
	for _, it := range d.pages {
		it.page.Release()
	}
	d.pages = make(map[string]*item)
	d.order = nil
}

// Get returns the page of the named chunk. The page stays owned by the
// directory and must not be used after the chunk is destroyed.
func (d *Directory) Get(name string) (*Page, error) {
	it, ok := d.pages[foldName(name)]
	if !ok {
		return nil, errors.Wrapf(ErrChunkNotFound, "get %q", name)
	}
	return it.page, nil
}

// Set replaces the page of an existing chunk, releasing the old one.
// A nil page removes the chunk.
func (d *Directory) Set(name string, p *Page) error {
	key := foldName(name)
	it, ok := d.pages[key]
	if !ok {
		return errors.Wrapf(ErrChunkNotFound, "set %q", name)
	}
	if p == nil {
		d.delete(key, it)
		return nil
	}
	if err := checkPageLen(p); err != nil {
		return err
	}
	if it.page != p {
		it.page.Release()
		it.page = p
	}
	return nil
}

// Len returns the number of chunks, empty ones included.
func (d *Directory) Len() int {
	return len(d.order)
}

// Names returns the declared chunk names in iteration order.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.order))
	for _, key := range d.order {
		names = append(names, d.pages[key].name)
	}
	return names
}

// Range calls fn for every chunk in iteration order until fn returns false.
// fn must not add or remove chunks.
func (d *Directory) Range(fn func(name string, p *Page) bool) {
	for _, key := range d.order {
		it := d.pages[key]
		if !fn(it.name, it.page) {
			return
		}
	}
}

// UsedMemory returns the number of payload bytes held by all chunks.
func (d *Directory) UsedMemory() int64 {
	var used int64
	for _, it := range d.pages {
		used += int64(it.page.Len())
	}
	return used
}

func (d *Directory) put(key, name string, p *Page) {
	d.pages[key] = &item{name: name, page: p}
	d.order = append(d.order, key)
}

func (d *Directory) delete(key string, it *item) {
	it.page.Release()
	delete(d.pages, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}
