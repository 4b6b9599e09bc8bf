package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/manifest"
	"github.com/sonnes/copilotmd/reader"
)

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "Manage the manifest of converted sessions",
		Commands: []*cli.Command{
			manifestUpsertCmd(),
			manifestRepairCmd(),
		},
	}
}

func manifestUpsertCmd() *cli.Command {
	return &cli.Command{
		Name:  "upsert",
		Usage: "Add or update a session entry in the manifest",
		Description: `Parses a chat session file, extracts metadata, and upserts the entry
into the manifest file. Use it when the document was rendered elsewhere.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the chat session file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Usage:    "Path to manifest.json",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "href",
				Usage:    "Relative link to the rendered document",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := appFrom(ctx)

			chatLog, err := a.reader().ReadFile(cmd.String("file"))
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}
			return upsertManifest(cmd.String("manifest"), chatLog, "", cmd.String("href"))
		},
	}
}

func manifestRepairCmd() *cli.Command {
	return &cli.Command{
		Name:  "repair",
		Usage: "Rebuild manifest.json by scanning an output directory",
		Description: `Scans the output directory for documents named after session IDs,
re-reads their chat sessions, and rebuilds the manifest from scratch.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Output directory holding the converted documents",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := appFrom(ctx)

			dir := cmd.String("dir")
			m, skipped, err := repairManifest(dir, a.reader())
			if err != nil {
				return err
			}

			if err := m.WriteFile(filepath.Join(dir, manifest.FileName)); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}

			fmt.Printf("Repaired manifest: %d entries (%d skipped)\n", len(m.Entries), skipped)
			return nil
		},
	}
}

// documentExts lists converted document extensions in href priority order.
var documentExts = []string{".html", ".md", ".json"}

// repairManifest scans dir for converted documents, re-reads each session
// via the reader, and builds a new manifest. It returns the manifest and the
// number of sessions that could not be read.
func repairManifest(dir string, r reader.Reader) (*manifest.Manifest, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read output directory: %w", err)
	}

	m := &manifest.Manifest{}
	seen := make(map[string]bool)
	skipped := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == manifest.FileName || name == indexFileName {
			continue
		}

		sessionID := strings.TrimSuffix(name, filepath.Ext(name))
		if seen[sessionID] {
			continue
		}
		href := detectSessionHref(sessionID, dir)
		if href == "" {
			continue
		}
		seen[sessionID] = true

		chatLog, err := r.ReadSession(sessionID)
		if err != nil {
			log.Warn("skipping session", "session", sessionID, "err", err)
			skipped++
			continue
		}
		m.Upsert(core.NewManifestEntry(chatLog, href))
	}

	return m, skipped, nil
}

// detectSessionHref checks for documents in priority order and returns the
// relative href (e.g. "{sessionID}.html"), or "" if none exists.
func detectSessionHref(sessionID, dir string) string {
	for _, ext := range documentExts {
		if _, err := os.Stat(filepath.Join(dir, sessionID+ext)); err == nil {
			return sessionID + ext
		}
	}
	return ""
}
