package cdcfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromHostBuildsSortedDenseTree(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "b.txt"), "b")
	mustWrite(t, filepath.Join(root, "a.txt"), "a")
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	mustWrite(t, filepath.Join(root, "sub", "c.txt"), "c")

	idx, err := FromHost(root)
	if err != nil {
		t.Fatalf("FromHost: %v", err)
	}

	if len(idx.Inodes) != 4 {
		t.Fatalf("got %d inodes, want 4", len(idx.Inodes))
	}
	for i, n := range idx.Inodes {
		if n.Ordinal != i {
			t.Fatalf("inode at position %d has ordinal %d, want dense ordinals", i, n.Ordinal)
		}
	}

	rootInode := idx.Inodes[0]
	if rootInode.Parent != 0 || rootInode.Kind != KindDirectory {
		t.Fatalf("root inode wrong: %+v", rootInode)
	}

	// a.txt must sort before b.txt, which must sort before sub/.
	aEntry, ok := rootInode.Dir["a.txt"]
	if !ok {
		t.Fatal("missing a.txt in root directory map")
	}
	bEntry, ok := rootInode.Dir["b.txt"]
	if !ok {
		t.Fatal("missing b.txt in root directory map")
	}
	subEntry, ok := rootInode.Dir["sub"]
	if !ok {
		t.Fatal("missing sub in root directory map")
	}
	if !(aEntry.Ordinal < bEntry.Ordinal && bEntry.Ordinal < subEntry.Ordinal) {
		t.Fatalf("directory entries not assigned in lexicographic order: a=%d b=%d sub=%d",
			aEntry.Ordinal, bEntry.Ordinal, subEntry.Ordinal)
	}

	subInode := idx.Inodes[subEntry.Ordinal]
	if !subInode.IsDir() {
		t.Fatalf("sub should be a directory inode")
	}
	cEntry, ok := subInode.Dir["c.txt"]
	if !ok {
		t.Fatal("missing c.txt in sub directory map")
	}
	if cEntry.Ordinal >= len(idx.Inodes) {
		t.Fatalf("c.txt ordinal %d out of range", cEntry.Ordinal)
	}
}

func TestFromHostEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	idx, err := FromHost(root)
	if err != nil {
		t.Fatalf("FromHost: %v", err)
	}
	if len(idx.Inodes) != 1 {
		t.Fatalf("got %d inodes for an empty directory, want 1 (root only)", len(idx.Inodes))
	}
	if idx.Inodes[0].Kind != KindDirectory || len(idx.Inodes[0].Dir) != 0 {
		t.Fatalf("root inode should be an empty directory, got %+v", idx.Inodes[0])
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}
