// pkg/object/mem.go

package object

import (
	"bytes"
	"io"
	"sync"

	"github.com/pkg/errors"
)

type memstore struct {
	sync.Mutex
	name    string
	objects map[string][]byte
}

func (m *memstore) String() string {
	return "mem://" + m.name
}

func (m *memstore) Head(key string) (*Object, error) {
	m.Lock()
	defer m.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return &Object{Key: key, Size: int64(len(data))}, nil
}

func (m *memstore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	m.Lock()
	defer m.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	data = data[off:]
	if limit >= 0 && limit < int64(len(data)) {
		data = data[:limit]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memstore) Put(key string, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrapf(err, "read %s", key)
	}
	m.Lock()
	defer m.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memstore) Delete(key string) error {
	m.Lock()
	defer m.Unlock()
	delete(m.objects, key)
	return nil
}

func newMem(name, accesskey, secretkey string) (ObjectStorage, error) {
	return &memstore{name: name, objects: make(map[string][]byte)}, nil
}

func init() {
	Register("mem", newMem)
}
