//go:build darwin

package fs

import (
	"os"
	"path/filepath"
)

// Roots returns candidate index roots from the direct children of /Volumes.
// The symlink back to / is reported as the system volume.
func Roots() []Root {
	entries, err := os.ReadDir("/Volumes")
	if err != nil {
		return []Root{{Name: "Macintosh HD", Path: "/"}}
	}

	var roots []Root
	for _, e := range entries {
		full := filepath.Join("/Volumes", e.Name())

		if target, err := os.Readlink(full); err == nil && target == "/" {
			roots = append([]Root{{Name: e.Name(), Path: "/"}}, roots...)
			continue
		}
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(full); err != nil {
			continue
		}
		roots = append(roots, Root{Name: e.Name(), Path: full})
	}

	if len(roots) == 0 {
		return []Root{{Name: "Macintosh HD", Path: "/"}}
	}
	return roots
}
