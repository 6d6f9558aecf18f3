package cdcfs

import (
	"io"
	"sort"
	"sync"
	"time"
)

// Synthetic attribute values presented by every View, regardless of what the
// host filesystem originally reported at ingest time (spec.md §4.6 and the
// cross-platform-fidelity non-goal).
const (
	SyntheticUID = 1000
	SyntheticGID = 1000
)

// SyntheticModTime is the fixed modification time reported for every inode.
var SyntheticModTime = time.Unix(0, 0)

// Attr is the synthetic attribute set returned by Lookup and Getattr.
type Attr struct {
	Ordinal int
	Kind    Kind
	Mode    uint32
	Size    int64
	UID     uint32
	GID     uint32
	Nlink   uint32
	ModTime time.Time
}

// DirEntry is one entry returned by Readdir.
type DirEntry struct {
	Name    string
	Ordinal int
	Kind    Kind
}

type handle struct {
	inode  *Inode
	stream *Chain
	pos    int64
}

// View exposes a materialised Index and its backing BlockStore as a
// read-only filesystem: lookup, getattr, open, read, release, readdir. It
// has no FUSE dependency of its own — fuse_mount.go adapts it onto go-fuse
// when built with the fuse tag.
type View struct {
	idx *Index
	bs  *BlockStore

	mu         sync.Mutex
	handles    map[uint64]*handle
	nextHandle uint64
}

// NewView returns a View over idx (must be materialised, i.e. not a
// reference — see Index.IsReference) backed by bs.
func NewView(idx *Index, bs *BlockStore) *View {
	return &View{idx: idx, bs: bs, handles: make(map[uint64]*handle)}
}

func (v *View) inode(ordinal int) (*Inode, error) {
	if ordinal < 0 || ordinal >= len(v.idx.Inodes) {
		return nil, ErrNotFound
	}
	return v.idx.Inodes[ordinal], nil
}

func (v *View) attrFor(n *Inode) Attr {
	nlink := uint32(1)
	if n.IsDir() {
		nlink = uint32(len(n.Dir)) + 1
	}
	return Attr{
		Ordinal: n.Ordinal,
		Kind:    n.Kind,
		Mode:    n.Mode,
		Size:    n.Size,
		UID:     SyntheticUID,
		GID:     SyntheticGID,
		Nlink:   nlink,
		ModTime: SyntheticModTime,
	}
}

// Getattr returns the synthetic attributes of ordinal.
func (v *View) Getattr(ordinal int) (Attr, error) {
	n, err := v.inode(ordinal)
	if err != nil {
		return Attr{}, err
	}
	return v.attrFor(n), nil
}

// Lookup resolves name inside the directory at parent.
func (v *View) Lookup(parent int, name string) (Attr, error) {
	n, err := v.inode(parent)
	if err != nil {
		return Attr{}, err
	}
	if !n.IsDir() {
		return Attr{}, ErrNotDirectory
	}
	entry, ok := n.Dir[name]
	if !ok {
		return Attr{}, ErrNotFound
	}
	child, err := v.inode(entry.Ordinal)
	if err != nil {
		return Attr{}, err
	}
	return v.attrFor(child), nil
}

// Readdir lists the directory at ordinal, sorted by name.
func (v *View) Readdir(ordinal int) ([]DirEntry, error) {
	n, err := v.inode(ordinal)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, ErrNotDirectory
	}

	names := make([]string, 0, len(n.Dir))
	for name := range n.Dir {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]DirEntry, 0, len(names))
	for _, name := range names {
		e := n.Dir[name]
		entries = append(entries, DirEntry{Name: name, Ordinal: e.Ordinal, Kind: e.Kind})
	}
	return entries, nil
}

// Open returns a process-local, opaque handle for reading the regular file
// at ordinal.
func (v *View) Open(ordinal int) (uint64, error) {
	n, err := v.inode(ordinal)
	if err != nil {
		return 0, err
	}
	if n.Kind != KindRegularFile {
		return 0, ErrNotRegularFile
	}
	stream, err := FileReader(n, v.bs)
	if err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextHandle++
	h := v.nextHandle
	v.handles[h] = &handle{inode: n, stream: stream}
	return h, nil
}

// Read returns up to size bytes starting at offset from an open handle.
// offset must not be less than the handle's current position — the
// underlying stream supports only forward seeks.
func (v *View) Read(h uint64, offset int64, size int) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	hd, ok := v.handles[h]
	if !ok {
		return nil, ErrNotFound
	}
	if offset < hd.pos {
		return nil, ErrInvalidSeek
	}
	if offset > hd.pos {
		if _, err := hd.stream.Seek(offset-hd.pos, io.SeekCurrent); err != nil {
			return nil, err
		}
		hd.pos = offset
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(hd.stream, buf)
	hd.pos += int64(n)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

// Release closes a handle previously returned by Open.
func (v *View) Release(h uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.handles[h]; !ok {
		return ErrNotFound
	}
	delete(v.handles, h)
	return nil
}
