package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/manifest"
	"github.com/sonnes/copilotmd/render"
	"github.com/sonnes/copilotmd/safepath"
)

func exportCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "dir",
			Aliases:  []string{"d"},
			Usage:    "Output directory for the documents, manifest.json and index.html",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "o",
			Usage: "Output format: html, markdown, json",
			Value: "html",
		},
		&cli.StringFlag{
			Name:  "folder",
			Usage: "Export the sessions of the VS Code workspace opened on this folder (default: current directory)",
		},
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"w"},
			Usage:   "Workspace storage directory name",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Export the sessions of every workspace",
		},
	}
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "export",
		Usage: "Convert every session of a workspace into a browsable directory",
		Description: `Writes one document per chat session, named after its session ID, upserts
each into manifest.json and regenerates index.html for HTML exports.
Run by the post-commit hook that install sets up.`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := appFrom(ctx)

			sel := selection{Workspace: cmd.String("workspace"), All: cmd.Bool("all")}
			if sel.Workspace == "" && !sel.All {
				folder := cmd.String("folder")
				if folder == "" {
					cwd, err := os.Getwd()
					if err != nil {
						return fmt.Errorf("get working directory: %w", err)
					}
					folder = cwd
				}
				ws, err := a.copilotReader().WorkspaceFor(folder)
				if err != nil {
					return err
				}
				sel.Workspace = ws
			}

			logs, err := readLogs(a.reader(), sel)
			if err != nil {
				return err
			}
			chain, err := a.transformers(transformOptionsFrom(cmd))
			if err != nil {
				return err
			}

			n, err := a.export(logs, cmd.String("dir"), cmd.String("o"), chain)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d of %d sessions to %s\n", n, len(logs), cmd.String("dir"))
			return nil
		},
	}
}

// export writes each log to dir as {session-id}{ext} and keeps the
// manifest and, for HTML, the index page in step. Sessions that fail are
// logged and skipped. It returns the number written.
func (a *app) export(logs []*core.ChatLog, dir, format string, chain []core.Transformer) (int, error) {
	ext := render.Extension(format)
	if ext == "" {
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
	dir, err := safepath.ValidateOutput(dir)
	if err != nil {
		return 0, err
	}
	manifestPath := filepath.Join(dir, manifest.FileName)

	written := 0
	for _, l := range logs {
		name := safepath.Sanitize(l.SessionID)
		if name == "" {
			continue
		}
		name += ext
		opts := convertOptions{Format: format, Manifest: manifestPath, Href: name, Chain: chain}
		if err := a.writeLog(l, filepath.Join(dir, name), opts); err != nil {
			log.Warn("skipping session", "session", l.SessionID, "err", err)
			continue
		}
		written++
	}

	if format == "html" {
		if err := writeIndex(dir, true, a.htmlRenderer()); err != nil {
			return written, err
		}
	}
	return written, nil
}
