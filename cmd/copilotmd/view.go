package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/pager"
	"github.com/sonnes/copilotmd/render/terminal"
)

func viewCmd() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Browse a chat session in a full-screen pager",
		ArgsUsage: "<file or session ID>",
		Flags:     transformFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("view requires one <input> argument")
			}
			a := appFrom(ctx)

			sel := selection{Session: cmd.Args().First()}
			if _, err := os.Stat(sel.Session); err == nil {
				sel = selection{File: sel.Session}
			}
			logs, err := readLogs(a.reader(), sel)
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

			chatLog := logs[0]
			var buf bytes.Buffer
			if err := terminal.New().Render(&buf, chatLog); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			return pager.Run(viewTitle(chatLog), buf.String())
		},
	}
}

func viewTitle(chatLog *core.ChatLog) string {
	if t := core.Title(chatLog); t != "" {
		return t
	}
	if chatLog.SessionID != "" {
		return "Session " + chatLog.SessionID
	}
	return "Chat session"
}
