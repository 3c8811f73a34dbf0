// cmd/cat.go

package main

import (
	"GorChunk/pkg/chunk"
	"GorChunk/pkg/utils"
	"fmt"
	"github.com/urfave/cli/v2"
	"os"
	"strings"
)

func catChunk(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("KEY and CHUNK are needed")
	}
	key, name := c.Args().Get(0), c.Args().Get(1)
	d := loadContainer(createStorage(c), key, chunk.WithFilter(func(n string) bool {
		return strings.EqualFold(n, name)
	}))
	p, err := d.Get(name)
	if err != nil {
		logger.Fatalf("%s: %s", key, err)
	}
	data := p.Bytes()
	if off := c.Int("offset"); off > 0 {
		data = data[utils.Min(off, len(data)):]
	}
	if limit := c.Int("limit"); limit >= 0 && limit < len(data) {
		data = data[:limit]
	}
	_, err = os.Stdout.Write(data)
	return err
}

func catFlags() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "write the content of one chunk to stdout",
		ArgsUsage: "KEY CHUNK",
		Action:    catChunk,
		Flags: append(storageFlags("file", "."),
			&cli.IntFlag{
				Name:  "offset",
				Usage: "skip the first bytes of the chunk",
			},
			&cli.IntFlag{
				Name:  "limit",
				Value: -1,
				Usage: "write at most this many bytes",
			},
		),
	}
}
