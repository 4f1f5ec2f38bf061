//go:build linux

package files

import (
	"os"
	"syscall"
	"time"
)

// fileTimes extracts created/accessed/modified timestamps as ISO-8601
// strings. On Linux the "created" time is the inode change time, which is
// what stat reports as ctime.
func fileTimes(fi os.FileInfo) (created, accessed, modified string) {
	modified = fi.ModTime().Format(time.RFC3339)
	created = modified
	accessed = modified

	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		// Timespec fields are int32 on 32-bit targets; Unix() widens them.
		created = time.Unix(st.Ctim.Unix()).Format(time.RFC3339)
		accessed = time.Unix(st.Atim.Unix()).Format(time.RFC3339)
	}
	return created, accessed, modified
}
