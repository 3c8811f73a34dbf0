// cmd/bench.go

package main

import (
	"GorChunk/pkg/chunk"
	"GorChunk/pkg/object"
	"GorChunk/pkg/utils"
	"bytes"
	"fmt"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"math/rand"
	"time"
)

type benchResult struct {
	bytes   int64
	elapsed time.Duration
}

func (r *benchResult) add(n int64, d time.Duration) {
	r.bytes += n
	r.elapsed += d
}

func (r *benchResult) String() string {
	if r.elapsed <= 0 {
		return "n/a"
	}
	mib := float64(r.bytes) / (1 << 20)
	return fmt.Sprintf("%.2f MiB/s (%.2f MiB in %s)", mib/r.elapsed.Seconds(), mib, r.elapsed.Round(time.Millisecond))
}

func buildContainer(chunks, size int, seed int64) (*chunk.Directory, error) {
	rnd := rand.New(rand.NewSource(seed))
	buf := make([]byte, size)
	d := chunk.NewDirectory()
	w := chunk.NewWriter(d)
	for i := 0; i < chunks; i++ {
		if err := w.SetCurrentChunk(fmt.Sprintf("chunk-%05d", i)); err != nil {
			return nil, err
		}
		rnd.Read(buf)
		if err := w.WriteBytes(buf, 0, len(buf)); err != nil {
			return nil, err
		}
	}
	return d, w.Close()
}

func benchRound(blob object.ObjectStorage, chunks, size int, seed int64, save, load *benchResult) error {
	d, err := buildContainer(chunks, size, seed)
	if err != nil {
		return err
	}
	key := "bench/" + uuid.NewString()

	start := time.Now()
	var buf bytes.Buffer
	n, err := d.SaveTo(&buf)
	if err != nil {
		return err
	}
	if err = blob.Put(key, &buf); err != nil {
		return err
	}
	save.add(n, time.Since(start))
	defer func() { _ = blob.Delete(key) }()

	start = time.Now()
	data, err := object.ReadAll(blob, key)
	if err != nil {
		return err
	}
	loaded := chunk.NewDirectory()
	if err = loaded.Load(data); err != nil {
		return err
	}
	load.add(int64(len(data)), time.Since(start))

	if loaded.Len() != d.Len() || loaded.UsedMemory() != d.UsedMemory() {
		return fmt.Errorf("loaded %d chunks (%d bytes), saved %d (%d bytes)",
			loaded.Len(), loaded.UsedMemory(), d.Len(), d.UsedMemory())
	}
	return nil
}

func bench(c *cli.Context) error {
	setLoggerLevel(c)
	chunks, size, count := c.Int("chunks"), c.Int("chunk-size")<<10, c.Int("count")
	if chunks < 1 || size < 1 || count < 1 {
		return fmt.Errorf("chunks, chunk-size and count must be positive")
	}
	blob := createStorage(c)
	progress, bar := utils.NewDynProgressBar("benchmarking: ", c.Bool("quiet"))
	bar.SetTotal(int64(count), false)

	ru := utils.GetRusage()
	began := utils.Clock()
	var save, load benchResult
	for i := 0; i < count; i++ {
		if err := benchRound(blob, chunks, size, int64(i), &save, &load); err != nil {
			logger.Fatalf("round %d: %s", i, err)
		}
		bar.Increment()
	}
	bar.SetTotal(0, true)
	progress.Wait()

	utime, stime := utils.GetRusage().Sub(ru)
	used := (utils.Clock() - began).Seconds()
	fmt.Printf("Containers: %d x %d chunks of %d KiB on %s\n", count, chunks, size>>10, blob)
	fmt.Printf("Save:       %s\n", &save)
	fmt.Printf("Load:       %s\n", &load)
	fmt.Printf("CPU:        %.1f%% (user %.2fs, sys %.2fs) over %.2fs\n", (utime+stime)*100/used, utime, stime, used)
	return nil
}

func benchFlags() *cli.Command {
	return &cli.Command{
		Name:   "bench",
		Usage:  "measure container save and load throughput",
		Action: bench,
		Flags: append(storageFlags("mem", "bench"),
			&cli.IntFlag{
				Name:  "chunks",
				Value: 64,
				Usage: "chunks per container",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Value: 1024,
				Usage: "size of each chunk in KiB",
			},
			&cli.IntFlag{
				Name:  "count",
				Value: 3,
				Usage: "number of containers",
			},
		),
	}
}
