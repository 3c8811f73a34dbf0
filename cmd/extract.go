// cmd/extract.go

package main

import (
	"GorChunk/pkg/chunk"
	"GorChunk/pkg/utils"
	"github.com/urfave/cli/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type target struct {
	name string
	data []byte
}

// chunkFileName turns a chunk name into a file name inside dir.
func chunkFileName(name string, lower bool) string {
	if lower {
		name = strings.ToLower(name)
	}
	return strings.ReplaceAll(name, string(filepath.Separator), "_")
}

func writeTargets(dir string, todo []target, concurrent int, quiet bool) int {
	progress, bar := utils.NewDynProgressBar("writing files: ", quiet)
	bar.SetTotal(int64(len(todo)), false)
	if concurrent < 1 {
		concurrent = 1
	}
	ch := make(chan target, 10240)
	var failed int
	var mu sync.Mutex
	wg := sync.WaitGroup{}
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ch {
				p := filepath.Join(dir, t.name)
				if err := os.WriteFile(p, t.data, 0644); err != nil {
					logger.Errorf("write %s: %s", p, err)
					mu.Lock()
					failed++
					mu.Unlock()
				}
				bar.Increment()
			}
		}()
	}
	for _, t := range todo {
		ch <- t
	}
	close(ch)
	wg.Wait()
	bar.SetTotal(0, true)
	progress.Wait()
	return failed
}

func extract(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		logger.Fatalf("KEY and DEST-DIR are needed")
	}
	key, dir := c.Args().Get(0), c.Args().Get(1)
	var opts []chunk.LoadOption
	if names := c.StringSlice("chunk"); len(names) > 0 {
		opts = append(opts, chunk.WithFilter(func(name string) bool {
			for _, n := range names {
				if strings.EqualFold(n, name) {
					return true
				}
			}
			return false
		}))
	}
	start := time.Now()
	d := loadContainer(createStorage(c), key, opts...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Fatalf("mkdir %s: %s", dir, err)
	}

	todo := make([]target, 0, d.Len())
	d.Range(func(name string, p *chunk.Page) bool {
		todo = append(todo, target{chunkFileName(name, c.Bool("lower")), p.Bytes()})
		return true
	})
	if failed := writeTargets(dir, todo, c.Int("threads"), c.Bool("quiet")); failed > 0 {
		logger.Fatalf("%d of %d chunks could not be written", failed, len(todo))
	}
	logger.Infof("Extracted %d chunks (%d bytes) to %s in %s", len(todo), d.UsedMemory(), dir, time.Since(start))
	return nil
}

func extractFlags() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "write every chunk of a container as a file",
		ArgsUsage: "KEY DEST-DIR",
		Action:    extract,
		Flags: append(storageFlags("file", "."),
			&cli.StringSliceFlag{
				Name:  "chunk",
				Usage: "only extract the named chunks (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "lower",
				Usage: "use lower case file names",
			},
			&cli.IntFlag{
				Name:  "threads",
				Value: 10,
				Usage: "number of concurrent writers",
			},
		),
	}
}
