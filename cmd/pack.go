// cmd/pack.go

package main

import (
	"GorChunk/pkg/chunk"
	"GorChunk/pkg/object"
	"GorChunk/pkg/utils"
	"errors"
	"github.com/urfave/cli/v2"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type source struct {
	name string
	path string
	data []byte
	err  error
}

// readSources loads every file with `concurrent` workers, keeping the order
// of srcs.
func readSources(srcs []*source, concurrent int, quiet bool) {
	progress, bar := utils.NewDynProgressBar("reading files: ", quiet)
	bar.SetTotal(int64(len(srcs)), false)
	if concurrent < 1 {
		concurrent = 1
	}
	todo := make(chan *source, 10240)
	wg := sync.WaitGroup{}
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range todo {
				s.data, s.err = os.ReadFile(s.path)
				bar.Increment()
			}
		}()
	}
	for _, s := range srcs {
		todo <- s
	}
	close(todo)
	wg.Wait()
	bar.SetTotal(0, true)
	progress.Wait()
}

func listSources(dir string) []*source {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Fatalf("read %s: %s", dir, err)
	}
	var srcs []*source
	for _, e := range entries {
		if !e.Type().IsRegular() {
			logger.Debugf("skip %s: not a regular file", e.Name())
			continue
		}
		srcs = append(srcs, &source{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(srcs, func(i, j int) bool { return srcs[i].name < srcs[j].name })
	return srcs
}

func pack(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		logger.Fatalf("SOURCE-DIR and KEY are needed")
	}
	dir, key := c.Args().Get(0), c.Args().Get(1)
	if !utils.Exists(dir) {
		logger.Fatalf("%s does not exist", dir)
	}
	blob := createStorage(c)
	if !c.Bool("force") {
		if _, err := blob.Head(key); err == nil {
			logger.Fatalf("%s already exists in %s, use --force to overwrite", key, blob)
		} else if !errors.Is(err, object.ErrNotFound) {
			logger.Fatalf("head %s: %s", key, err)
		}
	}

	start := time.Now()
	srcs := listSources(dir)
	readSources(srcs, c.Int("threads"), c.Bool("quiet"))

	d := chunk.NewDirectory()
	for _, s := range srcs {
		if s.err != nil {
			logger.Fatalf("read %s: %s", s.path, s.err)
		}
		if len(s.data) > chunk.MaxChunkSize {
			logger.Warnf("skip %s: %d bytes do not fit in a chunk", s.path, len(s.data))
			continue
		}
		if err := d.AddChunk(s.name, chunk.NewPage(s.data)); err != nil {
			logger.Fatalf("add %s: %s", s.name, err)
		}
	}
	n := storeContainer(blob, key, d)
	logger.Infof("Packed %d chunks (%d bytes) into %s/%s in %s", len(d.Layout()), n, blob, key, time.Since(start))
	return nil
}

func packFlags() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "pack the files of a directory into a container",
		ArgsUsage: "SOURCE-DIR KEY",
		Action:    pack,
		Flags: append(storageFlags("file", "."),
			&cli.IntFlag{
				Name:  "threads",
				Value: 10,
				Usage: "number of concurrent readers",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "overwrite an existing container",
			},
		),
	}
}
