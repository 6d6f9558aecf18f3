package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// acquireLock takes a best-effort advisory flock(2) on storeRoot/.lock for
// the duration of a write. This is not a substitute for external
// coordination (spec.md §5 still says the store is single-writer with no
// in-process locking specified) — it only catches the common mistake of two
// `push`/`store-init` invocations racing against the same store.
func acquireLock(storeRoot string) (release func(), err error) {
	if err := os.MkdirAll(storeRoot, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(storeRoot, ".lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("cdcfs: store %s appears to be in use by another process: %w", storeRoot, err)
	}
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
