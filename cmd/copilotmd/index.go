package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/manifest"
	htmlrender "github.com/sonnes/copilotmd/render/html"
)

const indexFileName = "index.html"

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Generate an index page from the manifest",
		Description: `Reads manifest.json from the given directory and writes index.html
alongside it, listing every converted session newest first.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Directory containing manifest.json (writes index.html there)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "prune",
				Usage: "Drop manifest entries whose document no longer exists",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := appFrom(ctx)
			return writeIndex(cmd.String("dir"), cmd.Bool("prune"), a.htmlRenderer())
		},
	}
}

// writeIndex renders dir/index.html from dir/manifest.json. With prune set,
// stale entries are removed from the manifest first.
func writeIndex(dir string, prune bool, renderer *htmlrender.Renderer) error {
	manifestPath := filepath.Join(dir, manifest.FileName)
	m, err := manifest.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	if prune {
		if n := m.Prune(dir); n > 0 {
			log.Info("pruned manifest", "removed", n)
			if err := m.WriteFile(manifestPath); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}
		}
	}

	outPath := filepath.Join(dir, indexFileName)
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	if err := renderer.RenderIndex(f, m.Entries); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return nil
}
