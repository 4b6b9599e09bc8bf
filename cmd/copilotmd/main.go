package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/config"
)

func main() {
	root := &cli.Command{
		Name:  "copilotmd",
		Usage: "Convert GitHub Copilot chat sessions into readable Markdown",
		Description: `Reads the chat session JSON that VS Code stores for Copilot Chat and
turns it into a Markdown document with collapsible tool, edit and
reference blocks. HTML, JSON and terminal views are built on top of it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "error",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a config.toml, replacing the default search",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return ctx, err
			}
			return withApp(ctx, newApp(cfg)), nil
		},
		Commands: []*cli.Command{
			convertCmd(),
			renderCmd(),
			viewCmd(),
			watchCmd(),
			serveCmd(),
			indexCmd(),
			manifestCmd(),
			exportCmd(),
			installCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
