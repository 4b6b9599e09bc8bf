package main

import (
	"github.com/urfave/cli/v3"
)

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Path to a chat session file (.json or .json.zst)",
		},
		&cli.StringFlag{
			Name:  "session",
			Usage: "Session ID to look up in the VS Code workspace storage",
		},
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"w"},
			Usage:   "Workspace storage directory name (all sessions in it)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "All sessions in every workspace",
		},
	}
}

func selectionFrom(cmd *cli.Command) selection {
	return selection{
		File:      cmd.String("file"),
		Session:   cmd.String("session"),
		Workspace: cmd.String("workspace"),
		All:       cmd.Bool("all"),
	}
}

func transformFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-redact",
			Usage: "Disable redaction of secrets and PII",
		},
		&cli.StringSliceFlag{
			Name:  "redact",
			Usage: "Allowlist of rules to redact. Example: --redact=secrets,pii",
		},
		&cli.BoolFlag{
			Name:  "compact",
			Usage: "Replace tool output and edit text with line-count summaries",
		},
		&cli.BoolFlag{
			Name:  "strip-edits",
			Usage: "With --compact, drop file edit blocks entirely",
		},
	}
}

func transformOptionsFrom(cmd *cli.Command) transformOptions {
	return transformOptions{
		NoRedact:   cmd.Bool("no-redact"),
		Redact:     cmd.StringSlice("redact"),
		Compact:    cmd.Bool("compact"),
		StripEdits: cmd.Bool("strip-edits"),
	}
}
