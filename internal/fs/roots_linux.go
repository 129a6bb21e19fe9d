//go:build linux

package fs

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Roots returns candidate index roots: / plus real mounted filesystems from
// /proc/mounts. Virtual and ephemeral mounts are excluded.
func Roots() []Root {
	roots := []Root{{Name: "/", Path: "/"}}

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return roots
	}
	defer f.Close()

	seen := map[string]bool{"/": true}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mount, fsType := fields[1], fields[2]

		if skipMount(mount, fsType) || seen[mount] {
			continue
		}
		seen[mount] = true

		name := mount
		if strings.HasPrefix(mount, "/media/") || strings.HasPrefix(mount, "/mnt/") {
			name = filepath.Base(mount)
		}
		roots = append(roots, Root{Name: name, Path: mount})
	}
	return roots
}

func skipMount(mount, fsType string) bool {
	for _, prefix := range []string{"/sys", "/proc", "/dev", "/run", "/snap", "/boot"} {
		if strings.HasPrefix(mount, prefix) {
			return true
		}
	}
	switch fsType {
	case "tmpfs", "devtmpfs", "cgroup", "cgroup2", "overlay", "squashfs":
		return true
	}
	return false
}
