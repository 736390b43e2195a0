package destination

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// StatfsProber returns the production prober backed by statfs. The mover
// shares it for its pre-move space re-check.
func StatfsProber() SpaceProber {
	return statfsProber{}
}

// statfsProber reads free space from the filesystem via statfs.
type statfsProber struct{}

func (statfsProber) FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	// Bavail counts blocks available to unprivileged users, which is what
	// a move would actually get.
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
