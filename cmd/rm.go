// cmd/rm.go

package main

import (
	"GorChunk/pkg/chunk"
	"errors"
	"fmt"
	"github.com/urfave/cli/v2"
)

func rm(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 2 {
		return fmt.Errorf("KEY and CHUNK are needed")
	}
	key := c.Args().Get(0)
	blob := createStorage(c)
	d := loadContainer(blob, key)
	var removed int
	for _, name := range c.Args().Slice()[1:] {
		err := d.DestroyChunk(name)
		if errors.Is(err, chunk.ErrChunkNotFound) && c.Bool("force") {
			logger.Warnf("%s has no chunk %s", key, name)
			continue
		}
		if err != nil {
			logger.Fatalf("%s: %s", key, err)
		}
		removed++
	}
	if removed == 0 {
		return nil
	}
	n := storeContainer(blob, key, d)
	logger.Infof("Removed %d chunks from %s, %d chunks (%d bytes) left", removed, key, d.Len(), n)
	return nil
}

func rmFlags() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove chunks from a container",
		ArgsUsage: "KEY CHUNK ...",
		Action:    rm,
		Flags: append(storageFlags("file", "."),
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "ignore missing chunks",
			},
		),
	}
}
