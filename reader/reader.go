// Package reader defines the interface for loading stored chat sessions into
// the core chat log model.
package reader

import "github.com/sonnes/copilotmd/core"

// Reader parses stored chat sessions into chat logs.
type Reader interface {
	// ReadFile parses a single session file at the given path.
	ReadFile(path string) (*core.ChatLog, error)

	// ReadSession locates and parses a session by its ID.
	ReadSession(sessionID string) (*core.ChatLog, error)

	// ReadWorkspace returns all chat logs stored for one workspace.
	ReadWorkspace(workspace string) ([]*core.ChatLog, error)

	// ReadAll returns every chat log the editor has stored.
	ReadAll() ([]*core.ChatLog, error)
}
