// Package pathutil converts between absolute and relative paths.
//
// The core keeps source paths in the form they were given or resolved
// (includes are joined onto the start file's directory). The CLI's check
// and watch commands make a path absolute and convert it back to a path
// relative to the invocation directory for readability.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already
// relative, or if it lies outside rootDir.
//
// Examples:
//   - ToRelative("/home/user/project/set.mm", "/home/user/project") → "set.mm"
//   - ToRelative("/other/location/file.mm", "/home/user/project") → "/other/location/file.mm"
//   - ToRelative("set.mm", "/home/user/project") → "set.mm"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}
	return relPath
}
