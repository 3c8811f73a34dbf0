// pkg/utils/rusage.go

package utils

import (
	"time"

	"golang.org/x/sys/unix"
)

var started = time.Now()

// Clock returns the time elapsed since the process started.
func Clock() time.Duration {
	return time.Since(started)
}

type Rusage struct {
	unix.Rusage
}

// GetUtime returns user CPU seconds.
func (ru *Rusage) GetUtime() float64 {
	return float64(ru.Utime.Sec) + float64(ru.Utime.Usec)/1e6
}

// GetStime returns system CPU seconds.
func (ru *Rusage) GetStime() float64 {
	return float64(ru.Stime.Sec) + float64(ru.Stime.Usec)/1e6
}

// Sub returns the CPU seconds (user, system) spent since `prev`.
func (ru *Rusage) Sub(prev *Rusage) (float64, float64) {
	return ru.GetUtime() - prev.GetUtime(), ru.GetStime() - prev.GetStime()
}

func GetRusage() *Rusage {
	var ru unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &ru)
	return &Rusage{ru}
}
