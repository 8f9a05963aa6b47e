//go:build linux

package csv

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential asks the kernel to readahead for a large sequential
// pass. Best-effort: failures are ignored.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
