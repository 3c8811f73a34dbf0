// cmd/umount.go

package main

import (
	"fmt"
	"github.com/urfave/cli/v2"
	"os/exec"
	"runtime"
)

func umountFlags() *cli.Command {
	return &cli.Command{
		Name:      "umount",
		Usage:     "unmount a container",
		ArgsUsage: "MOUNTPOINT",
		Action:    umount,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "unmount a busy mount point by force",
			},
		},
	}
}

// fusermount returns the fusermount binary shipped with libfuse 3 or 2.
func fusermount() string {
	for _, bin := range []string{"fusermount3", "fusermount"} {
		if _, err := exec.LookPath(bin); err == nil {
			return bin
		}
	}
	return ""
}

func umount(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 1 {
		return fmt.Errorf("MOUNTPOINT is needed")
	}
	mp := ctx.Args().Get(0)
	force := ctx.Bool("force")

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		if force {
			cmd = exec.Command("diskutil", "umount", "force", mp)
		} else {
			cmd = exec.Command("diskutil", "umount", mp)
		}
	case "linux":
		if bin := fusermount(); bin != "" {
			if force {
				cmd = exec.Command(bin, "-uz", mp)
			} else {
				cmd = exec.Command(bin, "-u", mp)
			}
		} else {
			if force {
				cmd = exec.Command("umount", "-l", mp)
			} else {
				cmd = exec.Command("umount", mp)
			}
		}
	default:
		return fmt.Errorf("OS %s is not supported", runtime.GOOS)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Errorf("umount %s: %s", mp, out)
	}
	return err
}
