// pkg/object/interface.go

// Package object stores whole containers under string keys in a local
// directory, a Redis server or an SFTP host.
package object

import (
	"io"
	"strings"

	"GorChunk/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("gorchunk")

// ErrNotFound is returned by Get and Head for a missing key.
var ErrNotFound = errors.New("object not found")

// Object describes a stored key.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ObjectStorage is the minimal blob interface the command line needs.
type ObjectStorage interface {
	String() string
	// Get returns limit bytes of key starting at off. A negative limit
	// reads to the end.
	Get(key string, off, limit int64) (io.ReadCloser, error)
	// Put replaces key with everything read from in.
	Put(key string, in io.Reader) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(key string) error
	Head(key string) (*Object, error)
}

// Creator builds a storage for bucket with the given credentials.
type Creator func(bucket, accessKey, secretKey string) (ObjectStorage, error)

var storages = make(map[string]Creator)

// Register makes a storage available to CreateStorage under name.
func Register(name string, register Creator) {
	storages[name] = register
}

// CreateStorage returns the storage registered as name.
func CreateStorage(name, bucket, accessKey, secretKey string) (ObjectStorage, error) {
	f, ok := storages[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("invalid storage: %s", name)
	}
	return f(bucket, accessKey, secretKey)
}

// Storages lists the registered storage names.
func Storages() []string {
	names := make([]string, 0, len(storages))
	for name := range storages {
		names = append(names, name)
	}
	return names
}

// ReadAll fetches the whole object stored at key.
func ReadAll(store ObjectStorage, key string) ([]byte, error) {
	r, err := store.Get(key, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s from %s", key, store)
	}
	return data, nil
}
