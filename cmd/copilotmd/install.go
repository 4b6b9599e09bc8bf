package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/copilotmd/install"
)

func installCmd() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Set up git infrastructure for publishing Copilot chat sessions",
		Description: `Creates an orphan branch and git worktree that store the repository's
Copilot chat sessions alongside it. A post-commit hook runs
copilotmd export into the worktree and commits the result whenever you
commit code.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "o",
				Usage: "Export format: html, markdown, json",
				Value: "html",
			},
			&cli.StringFlag{
				Name:  "branch",
				Usage: "Branch name for the chats",
				Value: "copilot-chats",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := install.Config{
				Format: cmd.String("o"),
				Branch: cmd.String("branch"),
			}

			if err := install.Run(cfg); err != nil {
				return err
			}

			fmt.Println("Installed successfully.")
			fmt.Println()
			fmt.Printf("  Branch:    %s (orphan)\n", cfg.Branch)
			fmt.Printf("  Worktree:  %s/\n", install.WorktreeName)
			fmt.Printf("  Format:    %s\n", cfg.Format)
			fmt.Println()
			fmt.Println("Chat sessions are exported and committed when you run git commit.")
			return nil
		},
	}
}
