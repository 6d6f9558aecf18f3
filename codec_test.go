package cdcfs

import (
	"bytes"
	"testing"
)

func sampleIndex() *Index {
	return &Index{
		Version: indexFormatVersion,
		Inodes: []*Inode{
			{
				Ordinal: 0,
				Kind:    KindDirectory,
				Mode:    0o755,
				Dir: map[string]ContentDirEntry{
					"b.txt": {Ordinal: 1, Kind: KindRegularFile},
					"a.txt": {Ordinal: 2, Kind: KindRegularFile},
				},
			},
			{Ordinal: 1, Parent: 0, Kind: KindRegularFile, Size: 4, Content: []ContentBlockEntry{{Hash: []byte{1, 2, 3}, Offset: 0, Length: 4}}},
			{Ordinal: 2, Parent: 0, Kind: KindRegularFile, Size: 3, Content: []ContentBlockEntry{{Hash: []byte{4, 5, 6}, Offset: 0, Length: 3}}},
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	idx := sampleIndex()

	var buf bytes.Buffer
	if err := EncodeIndex(&buf, idx); err != nil {
		t.Fatalf("EncodeIndex: %v", err)
	}

	decoded, err := DecodeIndex(&buf)
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if decoded.Version != idx.Version {
		t.Fatalf("got version %d, want %d", decoded.Version, idx.Version)
	}
	if len(decoded.Inodes) != len(idx.Inodes) {
		t.Fatalf("got %d inodes, want %d", len(decoded.Inodes), len(idx.Inodes))
	}
	if len(decoded.Inodes[0].Dir) != 2 {
		t.Fatalf("got %d dir entries, want 2", len(decoded.Inodes[0].Dir))
	}
}

func TestCodecIsCanonical(t *testing.T) {
	idx := sampleIndex()

	var bufA, bufB bytes.Buffer
	if err := EncodeIndex(&bufA, idx); err != nil {
		t.Fatalf("EncodeIndex: %v", err)
	}
	if err := EncodeIndex(&bufB, idx); err != nil {
		t.Fatalf("EncodeIndex: %v", err)
	}
	if !bytes.Equal(bufA.Bytes(), bufB.Bytes()) {
		t.Fatal("two encodes of the same index produced different bytes")
	}
}

func TestCodecRejectsUnknownVersion(t *testing.T) {
	idx := sampleIndex()
	idx.Version = 99

	var buf bytes.Buffer
	if err := EncodeIndex(&buf, idx); err != nil {
		t.Fatalf("EncodeIndex: %v", err)
	}
	if _, err := DecodeIndex(&buf); err != ErrUnsupportedVersion {
		t.Fatalf("got %v, want ErrUnsupportedVersion", err)
	}
}
