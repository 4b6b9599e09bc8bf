// Package copilot reads GitHub Copilot chat sessions exported by VS Code
// (JSON in <config>/Code/User/workspaceStorage/<workspace>/chatSessions/).
package copilot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/copilotmd/archive"
	"github.com/sonnes/copilotmd/core"
)

// MaxFileSize is the default upper bound on the size of a chat session,
// measured after decompression.
const MaxFileSize int64 = 100 << 20

// ErrTooLarge is returned for inputs that exceed the size limit.
var ErrTooLarge = errors.New("chat log exceeds size limit")

// SessionsDirName is the per-workspace directory holding chat sessions.
const SessionsDirName = "chatSessions"

const workspaceFileName = "workspace.json"

// Reader reads VS Code Copilot chat session files.
type Reader struct {
	// Dir overrides the default workspace storage directory.
	Dir string
	// MaxBytes overrides MaxFileSize when positive.
	MaxBytes int64
}

// ReadFile parses a single chat session file. Files ending in .zst are
// decompressed first.
func (r *Reader) ReadFile(path string) (*core.ChatLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	limit := r.limit()
	if info, err := f.Stat(); err == nil && info.Size() > limit && !archive.IsCompressed(path) {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, info.Size(), limit)
	}

	var src io.Reader = f
	if archive.IsCompressed(path) {
		dec, err := archive.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open compressed session: %w", err)
		}
		defer dec.Close()
		src = dec
	}

	chatLog, err := parse(src, limit)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if chatLog.SessionID == "" {
		chatLog.SessionID = archive.SessionID(path)
	}
	return chatLog, nil
}

// ReadSession locates and parses a session by its ID across all workspaces.
func (r *Reader) ReadSession(sessionID string) (*core.ChatLog, error) {
	workspaces, err := os.ReadDir(r.dir())
	if err != nil {
		return nil, fmt.Errorf("read workspace storage: %w", err)
	}

	for _, ws := range workspaces {
		if !ws.IsDir() {
			continue
		}
		base := filepath.Join(r.dir(), ws.Name(), SessionsDirName, sessionID+archive.SessionExt)
		for _, path := range []string{base, base + archive.Ext} {
			if _, err := os.Stat(path); err == nil {
				return r.ReadFile(path)
			}
		}
	}

	return nil, fmt.Errorf("session %s not found", sessionID)
}

// ReadWorkspace returns every chat log stored for one workspace directory.
// Unreadable sessions are skipped.
func (r *Reader) ReadWorkspace(workspace string) ([]*core.ChatLog, error) {
	dir := filepath.Join(r.dir(), workspace, SessionsDirName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var logs []*core.ChatLog
	for _, e := range entries {
		if e.IsDir() || archive.SessionID(e.Name()) == "" {
			continue
		}
		chatLog, err := r.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Warn("skipping session", "file", e.Name(), "err", err)
			continue
		}
		logs = append(logs, chatLog)
	}
	return logs, nil
}

// ReadAll returns every chat log across all workspaces.
func (r *Reader) ReadAll() ([]*core.ChatLog, error) {
	workspaces, err := os.ReadDir(r.dir())
	if err != nil {
		return nil, fmt.Errorf("read workspace storage: %w", err)
	}

	var all []*core.ChatLog
	for _, ws := range workspaces {
		if !ws.IsDir() {
			continue
		}
		logs, err := r.ReadWorkspace(ws.Name())
		if err != nil {
			// Most workspaces never held a chat.
			continue
		}
		all = append(all, logs...)
	}
	log.Debug("read sessions", "dir", r.dir(), "count", len(all))
	return all, nil
}

// WorkspaceFor returns the workspace storage directory name VS Code uses for
// folder, matched through the workspace.json each storage directory holds.
func (r *Reader) WorkspaceFor(folder string) (string, error) {
	want, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("resolve folder: %w", err)
	}

	workspaces, err := os.ReadDir(r.dir())
	if err != nil {
		return "", fmt.Errorf("read workspace storage: %w", err)
	}

	for _, ws := range workspaces {
		if !ws.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir(), ws.Name(), workspaceFileName))
		if err != nil {
			continue
		}
		if path, ok := workspaceFolder(data); ok && filepath.Clean(path) == want {
			return ws.Name(), nil
		}
	}
	return "", fmt.Errorf("no workspace storage for %s", want)
}

func (r *Reader) dir() string {
	if r.Dir != "" {
		return r.Dir
	}
	return DefaultDir()
}

func (r *Reader) limit() int64 {
	if r.MaxBytes > 0 {
		return r.MaxBytes
	}
	return MaxFileSize
}

// DefaultDir returns the VS Code workspace storage directory for the current
// user and platform.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "Code", "User", "workspaceStorage")
}

// Parse decodes a chat session export, rejecting inputs larger than
// MaxFileSize.
func Parse(r io.Reader) (*core.ChatLog, error) {
	return parse(r, MaxFileSize)
}

func parse(r io.Reader, limit int64) (*core.ChatLog, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read chat log: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return decode(data)
}

// stripBOM drops a UTF-8 byte order mark, which some editors prepend.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\ufeff"))
}

// msToTime converts a Unix millisecond timestamp.
func msToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}
