//go:build !fuse

package cdcfs

import "errors"

// ErrFuseNotBuilt is returned by Mount when cdcfs was built without the
// fuse tag. The alternative would be silently doing nothing, which is worse
// than a clear error naming the missing build tag.
var ErrFuseNotBuilt = errors.New("cdcfs: not built with fuse support, rebuild with -tags fuse")

// Mount always fails in a build without the fuse tag.
func Mount(idx *Index, bs *BlockStore, mountPoint string) error {
	return ErrFuseNotBuilt
}
