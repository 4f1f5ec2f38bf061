//go:build !linux

package files

import (
	"os"
	"time"
)

// fileTimes falls back to the modification time on platforms where the stat
// structure is not portable.
func fileTimes(fi os.FileInfo) (created, accessed, modified string) {
	modified = fi.ModTime().Format(time.RFC3339)
	return modified, modified, modified
}
