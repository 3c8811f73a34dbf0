// pkg/fuse/fuse.go

// Package fuse exposes the chunks of one container as a read-only
// directory, one regular file per chunk.
package fuse

import (
	"context"
	"strings"
	"syscall"
	"time"

	"GorChunk/pkg/chunk"
	"GorChunk/pkg/utils"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"
)

var logger = utils.GetLogger("gorchunk")

const (
	accessLogName = ".accesslog"
	accessLogIno  = 0x7FFFFFFF00000001
	rootIno       = 1
)

// File is an immutable snapshot of one chunk.
type File struct {
	Name string
	Data []byte
}

// Snapshot copies the chunks of d so the mount never touches d again.
func Snapshot(d *chunk.Directory) []File {
	files := make([]File, 0, d.Len())
	d.Range(func(name string, p *chunk.Page) bool {
		files = append(files, File{Name: name, Data: append([]byte(nil), p.Bytes()...)})
		return true
	})
	return files
}

type Config struct {
	FsName       string
	Options      string // comma separated FUSE options
	AttrTimeout  time.Duration
	EntryTimeout time.Duration
	Debug        bool
}

type root struct {
	fs.Inode
	files []File
	mtime time.Time
}

var _ = (fs.NodeOnAdder)((*root)(nil))
var _ = (fs.NodeGetattrer)((*root)(nil))

func (r *root) OnAdd(ctx context.Context) {
	for i, f := range r.files {
		name := fileName(f.Name)
		if name == "" {
			logger.Warnf("chunk %q can not be exposed as a file", f.Name)
			continue
		}
		if r.GetChild(name) != nil {
			logger.Warnf("chunk %q clashes with another chunk, skipped", f.Name)
			continue
		}
		node := &chunkFile{name: name, data: f.Data, ino: uint64(i) + rootIno + 1, mtime: r.mtime}
		child := r.NewPersistentInode(ctx, node, fs.StableAttr{Mode: syscall.S_IFREG, Ino: node.ino})
		r.AddChild(name, child, false)
	}
	al := &accessLog{mtime: r.mtime}
	r.AddChild(accessLogName, r.NewPersistentInode(ctx, al, fs.StableAttr{Mode: syscall.S_IFREG, Ino: accessLogIno}), false)
}

func (r *root) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attrToStat(rootIno, syscall.S_IFDIR|0555, 4096, r.mtime, &out.Attr)
	return 0
}

type chunkFile struct {
	fs.Inode
	name  string
	data  []byte
	ino   uint64
	mtime time.Time
}

var _ = (fs.NodeOpener)((*chunkFile)(nil))
var _ = (fs.NodeReader)((*chunkFile)(nil))
var _ = (fs.NodeGetattrer)((*chunkFile)(nil))

func (c *chunkFile) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attrToStat(c.ino, syscall.S_IFREG|0444, uint64(len(c.data)), c.mtime, &out.Attr)
	return 0
}

func (c *chunkFile) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	fctx := newContext(ctx)
	defer releaseContext(fctx)
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		logit(fctx, "open (%s,%#x): %s", c.name, flags, syscall.EROFS)
		return nil, 0, syscall.EROFS
	}
	logit(fctx, "open (%s,%#x): OK", c.name, flags)
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (c *chunkFile) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	fctx := newContext(ctx)
	defer releaseContext(fctx)
	if off < 0 {
		logit(fctx, "read (%s,%d,%d): %s", c.name, len(dest), off, syscall.EINVAL)
		return nil, syscall.EINVAL
	}
	var n int
	if off < int64(len(c.data)) {
		n = copy(dest, c.data[off:])
	}
	logit(fctx, "read (%s,%d,%d): OK (%d)", c.name, len(dest), off, n)
	return fuse.ReadResultData(dest[:n]), 0
}

// accessLog streams the operations served by this mount, like a pipe.
type accessLog struct {
	fs.Inode
	mtime time.Time
}

var _ = (fs.NodeOpener)((*accessLog)(nil))
var _ = (fs.NodeGetattrer)((*accessLog)(nil))

func (a *accessLog) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attrToStat(accessLogIno, syscall.S_IFREG|0400, 0, a.mtime, &out.Attr)
	return 0
}

func (a *accessLog) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return &accessLogHandle{fh: openAccessLog()}, fuse.FOPEN_DIRECT_IO, 0
}

type accessLogHandle struct {
	fh uint64
}

var _ = (fs.FileReader)((*accessLogHandle)(nil))
var _ = (fs.FileReleaser)((*accessLogHandle)(nil))

func (h *accessLogHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n := readAccessLog(h.fh, dest, time.Second)
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *accessLogHandle) Release(ctx context.Context) syscall.Errno {
	closeAccessLog(h.fh)
	return 0
}

func mountOptions(conf *Config) *fs.Options {
	opt := &fs.Options{
		AttrTimeout:  &conf.AttrTimeout,
		EntryTimeout: &conf.EntryTimeout,
	}
	opt.FsName = conf.FsName
	opt.Name = "gorchunk"
	opt.Debug = conf.Debug
	if conf.Debug {
		opt.Logger = utils.GetStdLogger(utils.GetLogger("go-fuse"), logrus.DebugLevel)
	}
	opt.Options = append(opt.Options, "ro")
	for _, o := range strings.Split(conf.Options, ",") {
		if o = strings.TrimSpace(o); o != "" && o != "ro" {
			opt.Options = append(opt.Options, o)
		}
	}
	return opt
}

// Serve mounts files at mountpoint and blocks until it is unmounted.
func Serve(mountpoint string, files []File, conf *Config) error {
	r := &root{files: files, mtime: time.Now()}
	server, err := fs.Mount(mountpoint, r, mountOptions(conf))
	if err != nil {
		return err
	}
	logger.Infof("serving %d chunks at %s", len(files), mountpoint)
	server.Wait()
	return nil
}
