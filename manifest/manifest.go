// Package manifest manages the index file (manifest.json) that tracks every
// chat log converted into an output directory.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sonnes/copilotmd/core"
)

// FileName is the conventional manifest name inside an output directory.
const FileName = "manifest.json"

// Manifest holds the list of session metadata entries.
type Manifest struct {
	Entries []core.ManifestEntry `json:"entries"`
}

// ReadFile reads a manifest from disk. Returns an empty Manifest if the file
// does not exist.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &m, nil
}

// Upsert adds or replaces an entry matched by SessionID. After upserting, the
// entries are sorted newest-first by CreatedAt.
func (m *Manifest) Upsert(entry core.ManifestEntry) {
	defer m.sort()
	for i, e := range m.Entries {
		if e.SessionID == entry.SessionID {
			m.Entries[i] = entry
			return
		}
	}
	m.Entries = append(m.Entries, entry)
}

// Remove drops the entry for sessionID, reporting whether one existed.
func (m *Manifest) Remove(sessionID string) bool {
	for i, e := range m.Entries {
		if e.SessionID == sessionID {
			m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Prune drops entries whose rendered page no longer exists under dir and
// returns how many were removed.
func (m *Manifest) Prune(dir string) int {
	kept := m.Entries[:0]
	for _, e := range m.Entries {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(e.Href))); err == nil {
			kept = append(kept, e)
		}
	}
	removed := len(m.Entries) - len(kept)
	m.Entries = kept
	return removed
}

func (m *Manifest) sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		return m.Entries[i].CreatedAt.After(m.Entries[j].CreatedAt)
	})
}

// WriteFile writes the manifest to disk atomically using a temporary file and
// rename, which is safe against concurrent writers.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
