// pkg/object/file.go

package object

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const dirSuffix = "/"

type filestore struct {
	root string
}

func (d *filestore) String() string {
	return "file://" + d.root
}

func (d *filestore) path(key string) (string, error) {
	if key == "" || strings.HasSuffix(key, dirSuffix) {
		return "", errors.Errorf("invalid key %q", key)
	}
	p := filepath.Join(d.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, filepath.Clean(d.root)+string(filepath.Separator)) {
		return "", errors.Errorf("key %q escapes %s", key, d.root)
	}
	return p, nil
}

func (d *filestore) Head(key string) (*Object, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return &Object{Key: key, Size: fi.Size()}, nil
}

func (d *filestore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	if off > 0 {
		if _, err := f.Seek(off, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if limit >= 0 {
		return struct {
			io.Reader
			io.Closer
		}{io.LimitReader(f, limit), f}, nil
	}
	return f, nil
}

func (d *filestore) Put(key string, in io.Reader) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(p), "."+filepath.Base(p)+".tmp-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()
	if _, err = io.Copy(f, in); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", key)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (d *filestore) Delete(key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func newDisk(root, accesskey, secretkey string) (ObjectStorage, error) {
	if root == "" {
		return nil, errors.New("file storage needs a directory as bucket")
	}
	root, err := filepath.Abs(strings.TrimPrefix(root, "file://"))
	if err != nil {
		return nil, err
	}
	logger.Debugf("file storage at %s", root)
	return &filestore{root: root}, nil
}

func init() {
	Register("file", newDisk)
}
