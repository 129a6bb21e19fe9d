//go:build windows

package fs

import "syscall"

var (
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	getLogicalDrives = kernel32.NewProc("GetLogicalDrives")
)

// Roots returns one root per logical drive letter. GetLogicalDrives returns
// immediately even when network drives are disconnected, unlike the volume
// information calls, so this is safe to run on the UI path.
func Roots() []Root {
	mask, _, _ := getLogicalDrives.Call()

	var roots []Root
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A'+i)) + ":"
		roots = append(roots, Root{Name: letter, Path: letter + `\`})
	}
	return roots
}
