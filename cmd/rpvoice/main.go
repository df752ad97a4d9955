package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "rpvoice"
	app.Usage = "Push and pull roleplay voice clips between peers"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "the TOML config `FILE`",
			EnvVars: []string{"RPVOICE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "the peer address, overriding peer.host",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "the log level, overriding logging.level",
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Run a relay that stores pushed clips and answers pulls",
			Action: serveCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "data-dir",
					Usage: "the payload directory, overriding relay.data_dir",
				},
			},
		},
		{
			Name:   "push",
			Usage:  "Push a clip with its position",
			Action: pushCmd,
			Flags: append(idFlags(),
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"f"},
					Usage:    "the clip to send",
					Required: true,
				},
				&cli.Float64Flag{Name: "x", Usage: "the X coordinate"},
				&cli.Float64Flag{Name: "y", Usage: "the Y coordinate"},
				&cli.Float64Flag{Name: "z", Usage: "the Z coordinate"},
			),
		},
		{
			Name:   "push-dir",
			Usage:  "Zip a directory and push it",
			Action: pushDirCmd,
			Flags: append(idFlags(),
				&cli.StringFlag{
					Name:     "dir",
					Aliases:  []string{"d"},
					Usage:    "the directory to send",
					Required: true,
				},
			),
		},
		{
			Name:   "pull",
			Usage:  "Pull a clip into a directory",
			Action: pullCmd,
			Flags: append(idFlags(),
				&cli.StringFlag{
					Name:  "dest",
					Value: ".",
					Usage: "the destination directory",
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "the local file name without extension, defaults to the request id",
				},
			),
		},
		{
			Name:   "pull-dir",
			Usage:  "Pull an archive and extract it",
			Action: pullDirCmd,
			Flags: append(idFlags(),
				&cli.StringFlag{
					Name:  "dest",
					Value: ".",
					Usage: "the destination directory",
				},
			),
		},
		{
			Name:   "position",
			Usage:  "Query the position stored with a clip",
			Action: positionCmd,
			Flags:  idFlags(),
		},
		{
			Name:   "request-id",
			Usage:  "Print the request id for a spoken line",
			Action: requestIDCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "sender", Required: true},
				&cli.StringFlag{Name: "text", Required: true},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// idFlags identify a clip either directly or by the line that produced it.
func idFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "the request id",
		},
		&cli.StringFlag{
			Name:  "sender",
			Usage: "the speaker, used with --text to derive the request id",
		},
		&cli.StringFlag{
			Name:  "text",
			Usage: "the spoken line, used with --sender to derive the request id",
		},
	}
}
