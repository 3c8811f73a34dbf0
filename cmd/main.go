// cmd/main.go

package main

import (
	"GorChunk/pkg/utils"
	"GorChunk/pkg/version"
	"github.com/google/gops/agent"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"os"
)

var logger = utils.GetLogger("gorchunk")

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"debug", "v"},
			Usage:   "enable debug log",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only warning and errors",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "enable trace log",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log level (trace, debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "append logs to this file instead of stderr",
		},
		&cli.BoolFlag{
			Name:  "no-agent",
			Usage: "disable the gops diagnostics agent",
		},
	}
}

func setLoggerLevel(c *cli.Context) {
	switch {
	case c.Bool("trace"):
		utils.SetLogLevel(logrus.TraceLevel)
	case c.Bool("verbose"):
		utils.SetLogLevel(logrus.DebugLevel)
	case c.Bool("quiet"):
		utils.SetLogLevel(logrus.WarnLevel)
	default:
		utils.SetLogLevel(utils.ParseLevel(c.String("log-level")))
	}
	if f := c.String("log-file"); f != "" {
		utils.SetOutFile(f)
	}
	setupAgent(c)
}

func setupAgent(c *cli.Context) {
	if c.Bool("no-agent") {
		return
	}
	if err := agent.Listen(agent.Options{}); err != nil {
		logger.Debugf("gops agent: %s", err)
	}
}

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name: "version", Aliases: []string{"V"},
		Usage: "print only the version",
	}
	app := &cli.App{
		Name:                 "gorchunk",
		Usage:                "pack, inspect and serve GorChunk containers",
		Version:              version.Version(),
		EnableBashCompletion: true,
		Flags:                globalFlags(),
		Commands: []*cli.Command{
			packFlags(),
			extractFlags(),
			infoFlags(),
			catFlags(),
			rmFlags(),
			benchFlags(),
			mountFlags(),
			umountFlags(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}
