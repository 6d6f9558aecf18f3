package cdcfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrNotDirectory is returned when a directory-only operation is attempted on a non-directory inode.
	ErrNotDirectory = errors.New("cdcfs: not a directory")

	// ErrNotRegularFile is returned when a file-content operation is attempted on a non-file inode.
	ErrNotRegularFile = errors.New("cdcfs: not a regular file")

	// ErrNotFound is returned when a lookup or readdir addresses an inode or name that does not exist.
	ErrNotFound = errors.New("cdcfs: not found")

	// ErrBlockNotFound is returned when a content reference names a hash absent from the block store.
	ErrBlockNotFound = errors.New("cdcfs: block not found in store")

	// ErrInvalidSeek is returned for a backward or absolute seek on a Take or Chain.
	ErrInvalidSeek = errors.New("cdcfs: seek not supported")

	// ErrUnsupportedVersion is returned when an index's version field is not understood.
	ErrUnsupportedVersion = errors.New("cdcfs: unsupported index version")

	// ErrNotAReference reports that an index is materialised rather than a reference. LoadIndex does not return it: it returns an already-materialised index unchanged.
	ErrNotAReference = errors.New("cdcfs: index is not a reference")

	// ErrStoreNotInitialized is returned when a store's content/ directory is missing.
	ErrStoreNotInitialized = errors.New("cdcfs: store has no content directory, run store-init")

	// ErrUnsupportedURL is returned for a store URL scheme/host this tool does not accept.
	ErrUnsupportedURL = errors.New("cdcfs: unsupported store url")
)
