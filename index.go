package cdcfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// Kind distinguishes what an Inode represents.
type Kind uint8

const (
	// KindDirectory marks an inode whose payload is a name-to-child mapping.
	KindDirectory Kind = 1
	// KindRegularFile marks an inode whose payload is a content-block list.
	KindRegularFile Kind = 2
	// KindSplitFile is reserved for specially-segmented executables and is
	// out of scope here; FromHost never produces it, and View.Open and
	// FileReader reject it with ErrNotRegularFile.
	KindSplitFile Kind = 3
)

// ContentBlockEntry is a contiguous slice of a stored block that belongs to
// a file. The ordered concatenation of a file inode's entries equals the
// file's bytes.
type ContentBlockEntry struct {
	Hash   []byte `cbor:"h"`
	Offset int64  `cbor:"o"`
	Length int64  `cbor:"l"`
}

// ContentDirEntry is the value type of a directory inode's name mapping.
type ContentDirEntry struct {
	Ordinal int  `cbor:"i"`
	Kind    Kind `cbor:"k"`
}

// Inode is one node of the index tree. Its ordinal is its identity and never
// changes. Exactly one of Dir (directories) or Content (regular files) ever
// carries payload.
type Inode struct {
	Ordinal int                        `cbor:"i"`
	Parent  int                        `cbor:"p"`
	Size    int64                      `cbor:"s"`
	Kind    Kind                       `cbor:"k"`
	Mode    uint32                     `cbor:"a"`
	Dir     map[string]ContentDirEntry `cbor:"d,omitempty"`
	Content []ContentBlockEntry        `cbor:"c,omitempty"`

	// hostPath is populated during FromHost and never persisted — it
	// crosses the ingest pipeline only, never the codec boundary.
	hostPath string
	// hostUID/hostGID are captured from the host stat info purely for
	// ingest-time diagnostics; the filesystem view always synthesises
	// fixed 1000/1000 at read-back, so these are never consulted there.
	hostUID uint32
	hostGID uint32
}

// IsDir reports whether the inode is a directory.
func (n *Inode) IsDir() bool { return n.Kind == KindDirectory }

// Index is the tree plus, once recursively chunked, the reference that
// replaces it. Exactly one of Inodes / Content carries payload at rest: a
// non-empty Content means this Index is a reference whose bytes must be
// fetched from the store and re-deserialised; a non-empty Inodes means this
// is the materialised tree.
type Index struct {
	Version int                 `cbor:"v"`
	Inodes  []*Inode            `cbor:"i,omitempty"`
	Content []ContentBlockEntry `cbor:"c,omitempty"`
}

// IsReference reports whether idx must be resolved through the block store
// before it can be read as a tree.
func (idx *Index) IsReference() bool { return len(idx.Content) > 0 }

const indexFormatVersion = 1

// FromHost walks root and builds the inode list breadth-then-depth: every
// directory's direct entries are enumerated in lexicographic order and
// turned into inodes (and a name mapping) before any of those entries'
// subdirectories are descended into. Entries that are neither directories
// nor regular files (symlinks, devices, sockets, …) are skipped — cdcfs
// mirrors only the tree shape and file bytes, not arbitrary host metadata.
func FromHost(root string) (*Index, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, err
	}
	rootInode := &Inode{
		Ordinal:  0,
		Parent:   0,
		Kind:     KindDirectory,
		Mode:     modeFromInfo(info),
		hostPath: root,
	}
	setHostOwnership(rootInode, info)

	inodes := []*Inode{rootInode}
	if err := descend(root, rootInode, &inodes); err != nil {
		return nil, err
	}
	return &Index{Version: indexFormatVersion, Inodes: inodes}, nil
}

func descend(dirPath string, parent *Inode, inodes *[]*Inode) error {
	entries, err := os.ReadDir(dirPath) // already lexicographically sorted
	if err != nil {
		return err
	}

	dirMap := make(map[string]ContentDirEntry, len(entries))
	var childDirs []*Inode

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return err
		}

		var kind Kind
		switch {
		case info.IsDir():
			kind = KindDirectory
		case info.Mode().IsRegular():
			kind = KindRegularFile
		default:
			continue
		}

		ordinal := len(*inodes)
		child := &Inode{
			Ordinal:  ordinal,
			Parent:   parent.Ordinal,
			Kind:     kind,
			Mode:     modeFromInfo(info),
			hostPath: filepath.Join(dirPath, entry.Name()),
		}
		if kind == KindRegularFile {
			child.Size = info.Size()
		}
		setHostOwnership(child, info)

		*inodes = append(*inodes, child)
		dirMap[entry.Name()] = ContentDirEntry{Ordinal: ordinal, Kind: kind}
		if kind == KindDirectory {
			childDirs = append(childDirs, child)
		}
	}

	parent.Dir = dirMap

	for _, child := range childDirs {
		if err := descend(child.hostPath, child, inodes); err != nil {
			return err
		}
	}
	return nil
}

func modeFromInfo(info fs.FileInfo) uint32 {
	return uint32(info.Mode().Perm())
}

func setHostOwnership(n *Inode, info fs.FileInfo) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		n.hostUID = stat.Uid
		n.hostGID = stat.Gid
	}
}
