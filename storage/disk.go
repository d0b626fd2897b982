package storage

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// CheckFreeSpace verifies the filesystem holding path has at least
// minFreeMB megabytes available. Called before each download so a full disk
// fails one camera's cycle step instead of corrupting a half-written clip.
func CheckFreeSpace(path string, minFreeMB uint64) error {
	if minFreeMB == 0 {
		return nil
	}

	usage, err := disk.Usage(path)
	if err != nil {
		return fmt.Errorf("failed to stat disk usage for %s: %v", path, err)
	}

	freeMB := usage.Free / (1024 * 1024)
	if freeMB < minFreeMB {
		return fmt.Errorf("insufficient disk space at %s: %d MB free, %d MB required", path, freeMB, minFreeMB)
	}
	return nil
}
