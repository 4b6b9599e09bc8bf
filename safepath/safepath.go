// Package safepath guards the paths the converter reads from and writes to.
package safepath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrSystemDir is returned when an output path points into a protected
// system directory.
var ErrSystemDir = errors.New("cannot write to system directory")

var systemDirs = []string{
	"/etc",
	"/sys",
	"/proc",
	"/dev",
	"/bin",
	"/sbin",
	"/boot",
	"/usr/bin",
	"/usr/sbin",
	`C:\Windows`,
}

// Sanitize reduces name to its last path element. Both slash and backslash
// separate elements, so traversal sequences like "../../etc/passwd" collapse
// to "passwd" on every platform.
func Sanitize(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ValidateOutput resolves path to an absolute path and rejects it when it
// falls inside a system directory.
func ValidateOutput(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	for _, dir := range systemDirs {
		if within(abs, dir) {
			return "", fmt.Errorf("%w: %s", ErrSystemDir, dir)
		}
	}
	return abs, nil
}

func within(path, dir string) bool {
	p := strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
	d := strings.ToLower(strings.ReplaceAll(dir, `\`, "/"))
	return p == d || strings.HasPrefix(p, d+"/")
}
