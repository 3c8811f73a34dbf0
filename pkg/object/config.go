// pkg/object/config.go

package object

import (
	"os"
)

// Config selects and tunes the storage used by the command line.
type Config struct {
	Storage   string
	Bucket    string
	AccessKey string
	SecretKey string `json:",omitempty"`
	UpLimit   int64  // bytes per second, 0 for unlimited
	DownLimit int64
}

// FillFromEnv takes the credentials from ACCESS_KEY and SECRET_KEY when they
// were not given explicitly, and clears the variables.
func (c *Config) FillFromEnv() {
	if c.AccessKey == "" && os.Getenv("ACCESS_KEY") != "" {
		c.AccessKey = os.Getenv("ACCESS_KEY")
		_ = os.Unsetenv("ACCESS_KEY")
	}
	if c.SecretKey == "" && os.Getenv("SECRET_KEY") != "" {
		c.SecretKey = os.Getenv("SECRET_KEY")
		_ = os.Unsetenv("SECRET_KEY")
	}
}

func (c *Config) RemoveSecret() {
	if c.SecretKey != "" {
		c.SecretKey = "removed"
	}
}

// Open creates the configured storage wrapped with its bandwidth limits.
func (c *Config) Open() (ObjectStorage, error) {
	store, err := CreateStorage(c.Storage, c.Bucket, c.AccessKey, c.SecretKey)
	if err != nil {
		return nil, err
	}
	if c.UpLimit > 0 || c.DownLimit > 0 {
		store = NewLimited(store, c.UpLimit, c.DownLimit)
	}
	return store, nil
}
