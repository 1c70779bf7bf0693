// Package security guards the files flowcheck writes: emitted reference
// tables, plots and HTML reports must stay inside their output directory.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

const maxFilenameLen = 128

// ValidatePathWithinDirectory checks that filePath resolves inside safeDir.
// Symlinks are resolved on the longest existing prefix of each path, so a
// link inside safeDir pointing elsewhere is rejected. Neither path needs to
// exist.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	rel, err := filepath.Rel(canonical(absSafeDir), canonical(absPath))
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// canonical resolves symlinks on the longest existing ancestor of an
// absolute path and re-appends the missing tail.
func canonical(abs string) string {
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	dir := abs
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			tail, _ := filepath.Rel(parent, abs)
			return filepath.Join(resolved, tail)
		}
		dir = parent
	}
}

// SanitizeFilename makes a safe file name from an arbitrary label such as
// "method_E_line 2_flow". Runs of characters other than ASCII letters,
// digits, dot, underscore and dash become a single underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
