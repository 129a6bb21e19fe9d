// Package fs discovers filesystem roots the background index can cover.
package fs

import "os"

// Root is a mounted volume or top-level directory worth indexing.
type Root struct {
	Name string
	Path string
}

// DefaultRoots returns the roots indexed when the user has not configured
// any: just the home directory.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{home}
}
