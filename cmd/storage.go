// cmd/storage.go

package main

import (
	"GorChunk/pkg/chunk"
	"GorChunk/pkg/object"
	"bytes"
	"github.com/urfave/cli/v2"
	"strings"
)

func storageFlags(defaultStorage, defaultBucket string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage",
			Value: defaultStorage,
			Usage: "object storage type (" + strings.Join(object.Storages(), ", ") + ")",
		},
		&cli.StringFlag{
			Name:  "bucket",
			Value: defaultBucket,
			Usage: "directory for file, URL for redis, [user@]host[:port]/path for sftp",
		},
		&cli.StringFlag{
			Name:  "access-key",
			Usage: "Access key for object storage (env ACCESS_KEY)",
		},
		&cli.StringFlag{
			Name:  "secret-key",
			Usage: "Secret key for object storage (env SECRET_KEY)",
		},
		&cli.IntFlag{
			Name:  "bwlimit",
			Usage: "bandwidth limit for upload and download in Mbps",
		},
	}
}

func createStorage(c *cli.Context) object.ObjectStorage {
	conf := object.Config{
		Storage:   c.String("storage"),
		Bucket:    c.String("bucket"),
		AccessKey: c.String("access-key"),
		SecretKey: c.String("secret-key"),
	}
	if limit := int64(c.Int("bwlimit")) * 1e6 / 8; limit > 0 {
		conf.UpLimit, conf.DownLimit = limit, limit
	}
	conf.FillFromEnv()
	blob, err := conf.Open()
	if err != nil {
		logger.Fatalf("object storage: %s", err)
	}
	conf.RemoveSecret()
	logger.Debugf("Data uses %s with %+v", blob, conf)
	return blob
}

func loadContainer(blob object.ObjectStorage, key string, opts ...chunk.LoadOption) *chunk.Directory {
	data, err := object.ReadAll(blob, key)
	if err != nil {
		logger.Fatalf("get %s: %s", key, err)
	}
	d := chunk.NewDirectory()
	if err = d.Load(data, opts...); err != nil {
		logger.Fatalf("load %s: %s", key, err)
	}
	return d
}

func storeContainer(blob object.ObjectStorage, key string, d *chunk.Directory) int64 {
	var buf bytes.Buffer
	n, err := d.SaveTo(&buf)
	if err != nil {
		logger.Fatalf("save %s: %s", key, err)
	}
	if err = blob.Put(key, &buf); err != nil {
		logger.Fatalf("put %s: %s", key, err)
	}
	return n
}
