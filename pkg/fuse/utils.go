// pkg/fuse/utils.go

package fuse

import (
	"strings"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

func attrToStat(ino uint64, mode uint32, size uint64, mtime time.Time, out *fuse.Attr) {
	out.Ino = ino
	out.Mode = mode
	out.Nlink = 1
	out.Uid = uint32(syscall.Getuid())
	out.Gid = uint32(syscall.Getgid())
	t := uint64(mtime.Unix())
	ns := uint32(mtime.Nanosecond())
	out.Atime, out.Atimensec = t, ns
	out.Mtime, out.Mtimensec = t, ns
	out.Ctime, out.Ctimensec = t, ns
	out.Size = size
	out.Blocks = (size + 511) / 512
	setBlksize(out, 0x10000)
}

// fileName maps a chunk name to a directory entry, or "" when the name can
// not be one.
func fileName(chunk string) string {
	if chunk == "." || chunk == ".." || chunk == accessLogName {
		return ""
	}
	return strings.ReplaceAll(chunk, "/", "_")
}
