package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
)

// settleDelay collapses the burst of events an editor emits per save.
const settleDelay = 250 * time.Millisecond

func watchCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "o",
			Usage: "Output format: markdown, html, json (default from the output extension)",
		},
	}
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-convert a chat session file every time it changes",
		ArgsUsage: "<input> <output>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("watch requires <input> and <output> arguments")
			}
			a := appFrom(ctx)
			input, output := cmd.Args().Get(0), cmd.Args().Get(1)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			chain, err := a.transformers(transformOptionsFrom(cmd))
			if err != nil {
				return err
			}

			convert := func() {
				chatLog, err := a.convert(input, output, convertOptions{Format: cmd.String("o"), Chain: chain})
				if err != nil {
					log.Error("convert", "input", input, "err", err)
					return
				}
				log.Info("converted", "session", chatLog.SessionID, "requests", len(chatLog.Requests), "output", output)
			}

			convert()
			target, err := filepath.Abs(input)
			if err != nil {
				return fmt.Errorf("resolve input: %w", err)
			}
			return watchFiles(ctx, []string{filepath.Dir(target)}, func(path string) bool {
				return path == target
			}, convert)
		},
	}
}

// watchFiles watches dirs and calls fn once events for a matching path have
// settled. It blocks until ctx is cancelled. Directories are watched rather
// than files since editors replace files by rename.
func watchFiles(ctx context.Context, dirs []string, match func(path string) bool, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		log.Debug("watching", "dir", dir)
	}

	timer := time.NewTimer(settleDelay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !match(abs) {
				continue
			}
			timer.Reset(settleDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)
		case <-timer.C:
			fn()
		}
	}
}
