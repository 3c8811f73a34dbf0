// cmd/mount_unix.go

//go:build !windows

package main

import (
	"GorChunk/pkg/fuse"
	"bytes"
	"fmt"
	"github.com/juicedata/godaemon"
	"github.com/urfave/cli/v2"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
)

func checkMountpoint(name, mp string) {
	for i := 0; i < 20; i++ {
		time.Sleep(time.Millisecond * 500)
		st, err := os.Stat(mp)
		if err == nil {
			if sys, ok := st.Sys().(*syscall.Stat_t); ok && sys.Ino == 1 {
				logger.Infof("\033[92mOK\033[0m, %s is ready at %s", name, mp)
				return
			}
		}
		_, _ = os.Stdout.WriteString(".")
		_ = os.Stdout.Sync()
	}
	_, _ = os.Stdout.WriteString("\n")
	logger.Fatalf("fail to mount after 10 seconds, please mount in foreground")
}

func makeDaemon(c *cli.Context, name, mp string) error {
	var attrs godaemon.DaemonAttr
	attrs.OnExit = func(stage int) error {
		if stage != 0 {
			return nil
		}
		checkMountpoint(name, mp)
		return nil
	}

	// the current dir will be changed to root in daemon,
	// so the mount point has to be an absolute path.
	if godaemon.Stage() == 0 {
		for i, a := range os.Args {
			if a == mp {
				amp, err := filepath.Abs(mp)
				if err == nil {
					os.Args[i] = amp
				} else {
					logger.Warnf("abs of %s: %s", mp, err)
				}
			}
		}
		var err error
		logfile := c.String("log")
		attrs.Stdout, err = os.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Errorf("open log file %s: %s", logfile, err)
		}
	}
	_, _, err := godaemon.MakeDaemon(&attrs)
	return err
}

func disableUpdatedb() {
	p := "/etc/updatedb.conf"
	data, err := os.ReadFile(p)
	if err != nil {
		return
	}
	fstype := "fuse.gorchunk"
	if bytes.Contains(data, []byte(fstype)) {
		return
	}
	// assume that fuse.sshfs is already in PRUNEFS
	knownFS := "fuse.sshfs"
	p1 := bytes.Index(data, []byte("PRUNEFS"))
	p2 := bytes.Index(data, []byte(knownFS))
	if p1 > 0 && p2 > p1 {
		var nd []byte
		nd = append(nd, data[:p2]...)
		nd = append(nd, fstype...)
		nd = append(nd, ' ')
		nd = append(nd, data[p2:]...)
		err = os.WriteFile(p, nd, 0644)
		if err != nil {
			logger.Warnf("update %s: %s", p, err)
		} else {
			logger.Infof("Add %s into PRUNEFS of %s", fstype, p)
		}
	}
}

func mount(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("KEY and MOUNTPOINT are needed")
	}
	key, mp := c.Args().Get(0), c.Args().Get(1)
	if st, err := os.Stat(mp); err != nil || !st.IsDir() {
		if err = os.MkdirAll(mp, 0755); err != nil {
			logger.Fatalf("create mount point %s: %s", mp, err)
		}
	}

	// load before forking so that errors reach the terminal
	files := fuse.Snapshot(loadContainer(createStorage(c), key))
	name := "gorchunk:" + key
	if c.Bool("d") {
		if err := makeDaemon(c, name, mp); err != nil {
			logger.Fatalf("Failed to make daemon: %s", err)
		}
	}
	if os.Getuid() == 0 && os.Getpid() != 1 {
		disableUpdatedb()
	}

	logger.Infof("Mounting %s at %s ...", key, mp)
	conf := &fuse.Config{
		FsName:       name,
		Options:      c.String("o"),
		AttrTimeout:  time.Duration(c.Float64("attr-cache") * float64(time.Second)),
		EntryTimeout: time.Duration(c.Float64("entry-cache") * float64(time.Second)),
		Debug:        c.Bool("trace"),
	}
	if err := fuse.Serve(mp, files, conf); err != nil {
		logger.Fatalf("fuse: %s", err)
	}
	return nil
}

func mountFlags() *cli.Command {
	var defaultLogDir = "/var/log"
	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Fatalf("%v", err)
			return nil
		}
		defaultLogDir = path.Join(homeDir, ".gorchunk")
	}
	return &cli.Command{
		Name:      "mount",
		Usage:     "expose the chunks of a container as read-only files",
		ArgsUsage: "KEY MOUNTPOINT",
		Action:    mount,
		Flags: append(storageFlags("file", "."),
			&cli.BoolFlag{
				Name:    "d",
				Aliases: []string{"background"},
				Usage:   "run in background",
			},
			&cli.StringFlag{
				Name:  "log",
				Value: path.Join(defaultLogDir, "gorchunk.log"),
				Usage: "path of log file when running in background",
			},
			&cli.StringFlag{
				Name:  "o",
				Usage: "other FUSE options",
			},
			&cli.Float64Flag{
				Name:  "attr-cache",
				Value: 1.0,
				Usage: "attributes cache timeout in seconds",
			},
			&cli.Float64Flag{
				Name:  "entry-cache",
				Value: 1.0,
				Usage: "file entry cache timeout in seconds",
			},
		),
	}
}
