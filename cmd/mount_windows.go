// cmd/mount_windows.go

package main

import (
	"fmt"
	"github.com/urfave/cli/v2"
)

func mountFlags() *cli.Command {
	return &cli.Command{
		Name:      "mount",
		Usage:     "expose the chunks of a container as read-only files (not supported on Windows)",
		ArgsUsage: "KEY MOUNTPOINT",
		Action: func(c *cli.Context) error {
			return fmt.Errorf("mount is not supported on Windows")
		},
	}
}
