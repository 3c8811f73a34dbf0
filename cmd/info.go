// cmd/info.go

package main

import (
	"GorChunk/pkg/chunk"
	"GorChunk/pkg/object"
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/urfave/cli/v2"
	"os"
	"text/tabwriter"
)

type containerInfo struct {
	Key     string        `json:"key"`
	Storage string        `json:"storage"`
	Size    int64         `json:"size"`
	Chunks  []chunk.Entry `json:"chunks"`
}

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func info(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("KEY is needed")
	}
	blob := createStorage(c)
	for _, key := range c.Args().Slice() {
		data, err := object.ReadAll(blob, key)
		if err != nil {
			logger.Errorf("get %s: %s", key, err)
			continue
		}
		entries, err := chunk.ReadTable(bytes.NewReader(data))
		if err != nil {
			logger.Errorf("%s: %s", key, err)
			continue
		}
		ci := &containerInfo{Key: key, Storage: blob.String(), Size: int64(len(data)), Chunks: entries}
		if ci.Chunks == nil {
			ci.Chunks = []chunk.Entry{}
		}
		if c.Bool("json") {
			printJson(ci)
			continue
		}
		fmt.Printf("%s: %d bytes, %d chunks\n", key, ci.Size, len(entries))
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "NAME\tOFFSET\tLENGTH\t")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", e.Name, e.Offset, e.Length)
		}
		_ = w.Flush()
	}
	return nil
}

func infoFlags() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show the chunk table of containers",
		ArgsUsage: "KEY ...",
		Action:    info,
		Flags: append(storageFlags("file", "."),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print as JSON",
			},
		),
	}
}
