//go:build fuse

package cdcfs

import (
	"context"
	"errors"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// node adapts one inode of a View onto go-fuse/v2's InodeEmbedder tree. This
// file follows the teacher's own optional-dependency convention — building
// the FUSE-specific half of a feature behind its own file gated by a build
// tag, same as inode_fuse.go/comp_zstd.go/comp_xz.go did for squashfs.
type node struct {
	fs.Inode
	view    *View
	ordinal int
}

var (
	_ fs.InodeEmbedder = (*node)(nil)
	_ fs.NodeLookuper  = (*node)(nil)
	_ fs.NodeGetattrer = (*node)(nil)
	_ fs.NodeOpener    = (*node)(nil)
	_ fs.NodeReader    = (*node)(nil)
	_ fs.NodeReaddirer = (*node)(nil)
)

func modeToFuse(k Kind, perm uint32) uint32 {
	if k == KindDirectory {
		return syscall.S_IFDIR | perm
	}
	return syscall.S_IFREG | perm
}

func attrToFuse(a Attr, out *fuse.Attr) {
	out.Ino = uint64(a.Ordinal)
	out.Size = uint64(a.Size)
	out.Mode = modeToFuse(a.Kind, a.Mode)
	out.Uid = a.UID
	out.Gid = a.GID
	out.Nlink = a.Nlink
	out.SetTimes(nil, &a.ModTime, &a.ModTime)
}

func (n *node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	a, err := n.view.Getattr(n.ordinal)
	if err != nil {
		return errnoFor(err)
	}
	attrToFuse(a, &out.Attr)
	return 0
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	a, err := n.view.Lookup(n.ordinal, name)
	if err != nil {
		return nil, errnoFor(err)
	}
	attrToFuse(a, &out.Attr)

	child := &node{view: n.view, ordinal: a.Ordinal}
	stable := fs.StableAttr{Mode: modeToFuse(a.Kind, a.Mode), Ino: uint64(a.Ordinal)}
	return n.NewInode(ctx, child, stable), 0
}

type dirStream struct {
	entries []DirEntry
	pos     int
}

func (d *dirStream) HasNext() bool { return d.pos < len(d.entries) }

func (d *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	e := d.entries[d.pos]
	d.pos++
	return fuse.DirEntry{Name: e.Name, Ino: uint64(e.Ordinal), Mode: modeToFuse(e.Kind, 0)}, 0
}

func (d *dirStream) Close() {}

func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.view.Readdir(n.ordinal)
	if err != nil {
		return nil, errnoFor(err)
	}
	return &dirStream{entries: entries}, 0
}

// fileHandle is the go-fuse FileHandle returned by Open; it just carries the
// View's own opaque handle.
type fileHandle struct {
	view *View
	h    uint64
}

func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	h, err := n.view.Open(n.ordinal)
	if err != nil {
		return nil, 0, errnoFor(err)
	}
	return &fileHandle{view: n.view, h: h}, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	fh, ok := f.(*fileHandle)
	if !ok {
		return nil, syscall.EIO
	}
	data, err := fh.view.Read(fh.h, off, len(dest))
	if err != nil {
		return nil, errnoFor(err)
	}
	return fuse.ReadResultData(data), 0
}

func (fh *fileHandle) Release(ctx context.Context) syscall.Errno {
	if err := fh.view.Release(fh.h); err != nil {
		return errnoFor(err)
	}
	return 0
}

// errnoFor maps the core package's sentinel errors onto the syscall.Errno
// values go-fuse requires every handler to report through.
func errnoFor(err error) syscall.Errno {
	switch {
	case errors.Is(err, ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrNotDirectory), errors.Is(err, ErrNotRegularFile):
		return syscall.ENOTDIR
	case errors.Is(err, ErrBlockNotFound):
		return syscall.EIO
	case errors.Is(err, ErrInvalidSeek):
		return syscall.ESPIPE
	default:
		return syscall.EIO
	}
}

// Mount serves idx (a materialised Index) at mountPoint over FUSE, reading
// chunk bytes from bs. It blocks until the filesystem is unmounted.
func Mount(idx *Index, bs *BlockStore, mountPoint string) error {
	root := &node{view: NewView(idx, bs), ordinal: 0}
	server, err := fs.Mount(mountPoint, root, &fs.Options{})
	if err != nil {
		return err
	}
	server.Wait()
	return nil
}
