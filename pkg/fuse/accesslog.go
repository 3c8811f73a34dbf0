// pkg/fuse/accesslog.go

package fuse

import (
	"fmt"
	"sync"
	"time"
)

type logReader struct {
	sync.Mutex
	buffer chan []byte
	last   []byte
}

var (
	readerLock sync.Mutex
	readers    = make(map[uint64]*logReader)
	nextReader uint64
)

// logit records one finished operation. Lines are only built while someone
// reads .accesslog, or when the operation was slow.
func logit(ctx *fuseContext, format string, args ...interface{}) {
	used := ctx.Duration()
	readerLock.Lock()
	defer readerLock.Unlock()
	if len(readers) == 0 && used < time.Second*10 {
		return
	}

	cmd := fmt.Sprintf(format, args...)
	ts := time.Now().Format("2006.01.02 15:04:05.000000")
	cmd += fmt.Sprintf(" <%.6f>", used.Seconds())
	if ctx.Pid() != 0 && used >= time.Second*10 {
		logger.Infof("slow operation: %s", cmd)
	}
	line := []byte(fmt.Sprintf("%s [uid:%d,gid:%d,pid:%d] %s\n", ts, ctx.Uid(), ctx.Gid(), ctx.Pid(), cmd))

	for _, r := range readers {
		select {
		case r.buffer <- line:
		default:
		}
	}
}

func openAccessLog() uint64 {
	readerLock.Lock()
	defer readerLock.Unlock()
	nextReader++
	readers[nextReader] = &logReader{buffer: make(chan []byte, 10240)}
	return nextReader
}

func closeAccessLog(fh uint64) {
	readerLock.Lock()
	defer readerLock.Unlock()
	delete(readers, fh)
}

// readAccessLog fills buf with pending lines, waiting up to wait for the
// first one. An idle reader gets a "#" line so that tail keeps polling.
func readAccessLog(fh uint64, buf []byte, wait time.Duration) int {
	readerLock.Lock()
	r, ok := readers[fh]
	readerLock.Unlock()
	if !ok {
		return 0
	}
	r.Lock()
	defer r.Unlock()
	var n int
	if len(r.last) > 0 {
		n = copy(buf, r.last)
		r.last = r.last[n:]
	}
	var t = time.NewTimer(wait)
	defer t.Stop()
	for n < len(buf) {
		select {
		case line := <-r.buffer:
			l := copy(buf[n:], line)
			n += l
			if l < len(line) {
				r.last = line[l:]
				return n
			}
		case <-t.C:
			if n == 0 {
				n = copy(buf, []byte("#\n"))
			}
			return n
		}
	}
	return n
}
