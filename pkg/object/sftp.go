// pkg/object/sftp.go

package object

import (
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type sftpStore struct {
	host string
	root string
	sc   *sftp.Client
}

func (f *sftpStore) String() string {
	return "sftp://" + f.host + f.root
}

func (f *sftpStore) path(key string) string {
	return path.Join(f.root, key)
}

func (f *sftpStore) Head(key string) (*Object, error) {
	fi, err := f.sc.Stat(f.path(key))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return &Object{Key: key, Size: fi.Size()}, nil
}

func (f *sftpStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	ff, err := f.sc.Open(f.path(key))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	if off > 0 {
		if _, err = ff.Seek(off, io.SeekStart); err != nil {
			_ = ff.Close()
			return nil, err
		}
	}
	if limit >= 0 {
		return struct {
			io.Reader
			io.Closer
		}{io.LimitReader(ff, limit), ff}, nil
	}
	return ff, nil
}

func (f *sftpStore) Put(key string, in io.Reader) error {
	p := f.path(key)
	if err := f.sc.MkdirAll(path.Dir(p)); err != nil {
		return errors.Wrapf(err, "mkdir %s", path.Dir(p))
	}
	tmp := path.Join(path.Dir(p), "."+path.Base(p)+".tmp-"+uuid.NewString())
	ff, err := f.sc.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		return err
	}
	if _, err = ff.ReadFrom(in); err != nil {
		_ = ff.Close()
		_ = f.sc.Remove(tmp)
		return errors.Wrapf(err, "write %s", key)
	}
	if err = ff.Close(); err != nil {
		_ = f.sc.Remove(tmp)
		return err
	}
	if err = f.sc.PosixRename(tmp, p); err != nil {
		_ = f.sc.Remove(tmp)
		return err
	}
	return nil
}

func (f *sftpStore) Delete(key string) error {
	err := f.sc.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// splitSftpBucket parses [sftp://][user@]host[:port]/path.
func splitSftpBucket(bucket string) (user, addr, root string, err error) {
	bucket = strings.TrimPrefix(bucket, "sftp://")
	if i := strings.LastIndex(bucket, "@"); i >= 0 {
		user, bucket = bucket[:i], bucket[i+1:]
	}
	i := strings.Index(bucket, "/")
	if i <= 0 {
		return "", "", "", errors.Errorf("sftp bucket needs host/path, got %q", bucket)
	}
	addr, root = bucket[:i], path.Clean(bucket[i:])
	if _, _, e := net.SplitHostPort(addr); e != nil {
		addr = net.JoinHostPort(addr, "22")
	}
	return user, addr, root, nil
}

func sshAuth(passwd string) ([]ssh.AuthMethod, error) {
	if passwd == "" {
		passwd = os.Getenv("SFTP_PASSWORD")
	}
	if passwd != "" {
		return []ssh.AuthMethod{ssh.Password(passwd)}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	key, err := os.ReadFile(filepath.Join(home, ".ssh", "id_rsa"))
	if err != nil {
		return nil, errors.Wrap(err, "no password and no private key")
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

func newSftp(bucket, user, passwd string) (ObjectStorage, error) {
	u, addr, root, err := splitSftpBucket(bucket)
	if err != nil {
		return nil, err
	}
	if user == "" {
		user = u
	}
	if user == "" {
		user = os.Getenv("USER")
	}
	auth, err := sshAuth(passwd)
	if err != nil {
		return nil, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	hostKeys, err := knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
	if err != nil {
		return nil, errors.Wrap(err, "load known hosts")
	}
	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         time.Second * 10,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", addr)
	}
	sc, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "start sftp on %s", addr)
	}
	logger.Debugf("sftp storage at %s%s as %s", addr, root, user)
	return &sftpStore{host: addr, root: root, sc: sc}, nil
}

func init() {
	Register("sftp", newSftp)
}
