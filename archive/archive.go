// Package archive keeps zstd-compressed copies of chat session files.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	// SessionExt is the extension of an uncompressed chat session file.
	SessionExt = ".json"
	// Ext is the extension appended to compressed session files.
	Ext = ".zst"
)

// Archive compresses srcPath into dir/{session-id}.json.zst and returns the
// archive path.
func Archive(srcPath, dir string) (string, error) {
	sessionID := SessionID(srcPath)
	if sessionID == "" {
		return "", fmt.Errorf("cannot extract session ID from %s", srcPath)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	destPath := Path(sessionID, dir)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer dest.Close()

	if err := Compress(dest, src); err != nil {
		return "", err
	}
	return destPath, nil
}

// Compress writes the zstd-compressed contents of src to dst.
func Compress(dst io.Writer, src io.Reader) error {
	encoder, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}
	return nil
}

// NewReader returns a reader that decompresses r. Closing it releases the
// decoder but not r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return decoder.IOReadCloser(), nil
}

// IsCompressed reports whether path names a compressed session file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, Ext)
}

// IsArchived reports whether an archive exists for the given session ID.
func IsArchived(sessionID, dir string) bool {
	_, err := os.Stat(Path(sessionID, dir))
	return err == nil
}

// Path returns the deterministic archive path for a session ID.
func Path(sessionID, dir string) string {
	return filepath.Join(dir, sessionID+SessionExt+Ext)
}

// SessionID derives the session ID from a session file name, compressed or
// not. It returns "" for other files.
func SessionID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, Ext)
	if !strings.HasSuffix(base, SessionExt) {
		return ""
	}
	return strings.TrimSuffix(base, SessionExt)
}

// Decompress writes the decompressed contents of the archive at path to dst.
func Decompress(path string, dst io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	return nil
}
