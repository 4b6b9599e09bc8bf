package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/archive"
	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/manifest"
	"github.com/sonnes/copilotmd/safepath"
)

func convertCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "o",
			Usage: "Output format: markdown, html, json (default from the output extension)",
		},
		&cli.StringFlag{
			Name:    "manifest",
			Aliases: []string{"m"},
			Usage:   "Upsert the session into this manifest.json",
		},
		&cli.StringFlag{
			Name:  "href",
			Usage: "Link stored in the manifest (default: output path relative to the manifest)",
		},
		&cli.BoolFlag{
			Name:  "archive",
			Usage: "Keep a zstd-compressed copy of the input in the archive directory",
		},
		&cli.StringFlag{
			Name:  "archive-dir",
			Usage: "Archive directory (default from config)",
		},
	}
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a chat session file into a document",
		ArgsUsage: "<input> <output>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("convert requires <input> and <output> arguments")
			}
			a := appFrom(ctx)

			chain, err := a.transformers(transformOptionsFrom(cmd))
			if err != nil {
				return err
			}

			opts := convertOptions{
				Format:   cmd.String("o"),
				Manifest: cmd.String("manifest"),
				Href:     cmd.String("href"),
				Chain:    chain,
			}
			if cmd.Bool("archive") || cmd.String("archive-dir") != "" {
				opts.ArchiveDir = cmd.String("archive-dir")
				if opts.ArchiveDir == "" {
					opts.ArchiveDir = a.cfg.Archive.Dir
				}
			}

			out, err := a.convert(cmd.Args().Get(0), cmd.Args().Get(1), opts)
			if err != nil {
				return err
			}
			log.Info("converted", "session", out.SessionID, "requests", len(out.Requests), "output", cmd.Args().Get(1))
			return nil
		},
	}
}

// convertOptions configures a single conversion.
type convertOptions struct {
	Format     string
	Manifest   string
	Href       string
	ArchiveDir string
	Chain      []core.Transformer
}

// convert reads input and writes it to output, archiving the input when
// requested.
func (a *app) convert(input, output string, opts convertOptions) (*core.ChatLog, error) {
	out, err := safepath.ValidateOutput(output)
	if err != nil {
		return nil, err
	}

	chatLog, err := a.reader().ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if err := a.writeLog(chatLog, out, opts); err != nil {
		return nil, err
	}

	if opts.ArchiveDir != "" && !archive.IsCompressed(input) {
		path, err := archive.Archive(input, opts.ArchiveDir)
		if err != nil {
			return nil, fmt.Errorf("archive session: %w", err)
		}
		log.Debug("archived", "path", path)
	}

	return chatLog, nil
}

// writeLog applies the transformer chain and writes the rendered document to
// the validated path out. The file is only replaced once rendering has
// succeeded.
func (a *app) writeLog(chatLog *core.ChatLog, out string, opts convertOptions) error {
	if err := core.Chain(chatLog, opts.Chain...); err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	format := opts.Format
	if format == "" {
		format = formatFor(out, a.cfg.Format)
	}
	if format == "terminal" {
		return fmt.Errorf("terminal output is only available from render and view")
	}
	rnd, err := a.renderer(format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := rnd.Render(&buf, chatLog); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if opts.Manifest != "" {
		return upsertManifest(opts.Manifest, chatLog, out, opts.Href)
	}
	return nil
}

// upsertManifest records chatLog in the manifest at path. An empty href
// links to out relative to the manifest directory.
func upsertManifest(path string, chatLog *core.ChatLog, out, href string) error {
	if href == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve manifest path: %w", err)
		}
		rel, err := filepath.Rel(filepath.Dir(abs), out)
		if err != nil {
			return fmt.Errorf("resolve href: %w", err)
		}
		href = filepath.ToSlash(rel)
	}

	m, err := manifest.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	m.Upsert(core.NewManifestEntry(chatLog, href))
	if err := m.WriteFile(path); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// formatFor picks an output format from the file extension.
func formatFor(path, def string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "html"
	case ".json":
		return "json"
	case ".md", ".markdown":
		return "markdown"
	}
	if def != "" {
		return def
	}
	return "markdown"
}
