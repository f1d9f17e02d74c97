package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" or "~/" in path with home.
// Paths without the prefix, and any path when home is empty, are returned unchanged.
func ExpandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}

// IsOwnerOnly reports whether mode grants nothing to group or others.
func IsOwnerOnly(mode os.FileMode) bool {
	return mode.Perm()&0077 == 0
}
