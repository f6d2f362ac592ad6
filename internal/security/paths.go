// Package security guards the file names the simulator derives from event
// IDs, which come from untrusted event files.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideDirectory is returned for a path that resolves outside its
// base directory.
var ErrOutsideDirectory = errors.New("path escapes base directory")

// maxStemLen bounds the length of a file name stem.
const maxStemLen = 128

// EventFileStem maps an event ID onto a file name stem made of ASCII
// letters, digits, '.', '_' and '-'. Runs of other characters become one
// underscore. An ID with nothing usable maps to "event".
func EventFileStem(eventID string) string {
	var b strings.Builder
	pendingUnderscore := false
	for _, r := range eventID {
		if b.Len() >= maxStemLen {
			break
		}
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-'
		if !ok {
			pendingUnderscore = true
			continue
		}
		if pendingUnderscore && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingUnderscore = false
		b.WriteRune(r)
	}
	stem := strings.Trim(b.String(), "._")
	if stem == "" {
		return "event"
	}
	return stem
}

// ResultPath returns the JSON result file of eventID inside dir.
func ResultPath(dir, eventID string) (string, error) {
	path := filepath.Join(dir, EventFileStem(eventID)+".json")
	if err := WithinDirectory(path, dir); err != nil {
		return "", err
	}
	return path, nil
}

// WithinDirectory returns ErrOutsideDirectory if path, after resolving
// symlinks of its longest existing prefix, is not inside dir.
func WithinDirectory(path, dir string) error {
	canonicalPath, err := resolve(path)
	if err != nil {
		return err
	}
	canonicalDir, err := resolve(dir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrOutsideDirectory, path, dir)
	}
	return nil
}

// resolve returns the absolute path of p with the symlinks of its longest
// existing prefix evaluated.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	for existing := abs; ; existing = filepath.Dir(existing) {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			rest, _ := filepath.Rel(existing, abs)
			return filepath.Join(resolved, rest), nil
		}
		if filepath.Dir(existing) == existing {
			return abs, nil
		}
	}
}
