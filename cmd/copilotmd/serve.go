package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/reader/copilot"
	"github.com/sonnes/copilotmd/server"
)

func serveCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"w"},
			Usage:   "Serve only this workspace storage directory (default: all)",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "Port to listen on (default from config)",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Reload sessions when VS Code writes them",
		},
	}
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve chat sessions for browsing in a local web UI",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a := appFrom(ctx)

			sel := selection{Workspace: cmd.String("workspace")}
			if sel.Workspace == "" {
				sel.All = true
			}

			chain, err := a.transformers(transformOptionsFrom(cmd))
			if err != nil {
				return err
			}
			load := func() ([]*core.ChatLog, error) {
				logs, err := readLogs(a.reader(), sel)
				if err != nil {
					return nil, err
				}
				return logs, applyTransformers(logs, chain)
			}

			logs, err := load()
			if err != nil {
				return err
			}
			srv := server.New(logs, a.cfg.MarkdownRenderer())

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cmd.Bool("watch") {
				dirs := sessionDirs(a.storageDir(), sel.Workspace)
				go func() {
					err := watchFiles(ctx, dirs, func(string) bool { return true }, func() {
						logs, err := load()
						if err != nil {
							log.Error("reload sessions", "err", err)
							return
						}
						srv.Update(logs)
						log.Info("reloaded sessions", "count", len(logs))
					})
					if err != nil {
						log.Error("watch sessions", "err", err)
					}
				}()
			}

			port := cmd.Int("port")
			if port == 0 {
				port = a.cfg.Serve.Port
			}
			addr := fmt.Sprintf(":%d", port)
			log.Info("serving", "addr", "http://localhost"+addr, "sessions", len(logs))
			return srv.ListenAndServe(ctx, addr)
		},
	}
}

func (a *app) storageDir() string {
	if a.cfg.StorageDir != "" {
		return a.cfg.StorageDir
	}
	return copilot.DefaultDir()
}

// sessionDirs lists the chatSessions directories to watch under root.
func sessionDirs(root, workspace string) []string {
	pattern := filepath.Join(root, "*", copilot.SessionsDirName)
	if workspace != "" {
		pattern = filepath.Join(root, workspace, copilot.SessionsDirName)
	}
	dirs, _ := filepath.Glob(pattern)
	return dirs
}
