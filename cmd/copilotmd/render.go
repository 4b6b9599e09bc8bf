package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func renderCmd() *cli.Command {
	flags := append(selectionFlags(),
		&cli.StringFlag{
			Name:  "o",
			Usage: "Output format: terminal, markdown, html, json",
			Value: "terminal",
		},
	)
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "render",
		Usage: "Render stored chat sessions to stdout",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := appFrom(ctx)

			logs, err := readLogs(a.reader(), selectionFrom(cmd))
			if err != nil {
				return err
			}

			chain, err := a.transformers(transformOptionsFrom(cmd))
			if err != nil {
				return err
			}
			if err := applyTransformers(logs, chain); err != nil {
				return err
			}

			rnd, err := a.renderer(cmd.String("o"))
			if err != nil {
				return err
			}

			for _, l := range logs {
				if err := rnd.Render(os.Stdout, l); err != nil {
					return fmt.Errorf("render: %w", err)
				}
			}
			return nil
		},
	}
}
