package cdcfs

import (
	"io"
	"os"

	"github.com/KarpelesLab/cdcfs/internal/rollsum"
)

// fileChunkBits and indexChunkBits are both fixed at 12 (≈4KiB expected
// chunks) for regular-file content and for the recursively self-chunked
// index — spec.md §6 fixes B=12 for both, so there is no knob to expose.
const (
	fileChunkBits  = 12
	indexChunkBits = 12
)

// ProgressFunc is called with the length of each chunk as it's emitted
// during StoreInodes, letting a caller (typically cmd/cdcfs) drive a
// progress bar without the core package depending on one.
type ProgressFunc func(chunkLen int64)

// blockFromChunk turns a chunk's parts into the Block that should be
// inserted for it, resolving each part's tag to a backing file path.
func blockFromChunk(chunk *Chunk, pathForTag func(tag int) string) *Block {
	shards := make([]BlockShard, 0, len(chunk.Parts))
	for _, p := range chunk.Parts {
		shards = append(shards, BlockShard{
			Path:   pathForTag(p.Tag),
			Offset: p.FileStart,
			Size:   p.FileEnd - p.FileStart,
		})
	}
	return &Block{Shards: shards, Size: chunk.Len}
}

func regularFileOrdinals(idx *Index) []int {
	var ordinals []int
	for _, n := range idx.Inodes {
		if n.Kind == KindRegularFile {
			ordinals = append(ordinals, n.Ordinal)
		}
	}
	return ordinals
}

// StoreInodes drives the chunker at B=12 over every regular-file inode's
// host bytes, in inode order, treating the concatenation as one logical
// stream. For each emitted chunk it inserts the corresponding Block into bs
// and appends a ContentBlockEntry to every inode the chunk touched.
func StoreInodes(idx *Index, bs *BlockStore, progress ProgressFunc) error {
	ordinals := regularFileOrdinals(idx)
	pos := 0
	var curFile *os.File
	defer func() {
		if curFile != nil {
			curFile.Close()
		}
	}()

	next := func() (Source, bool) {
		if curFile != nil {
			curFile.Close()
			curFile = nil
		}
		if pos >= len(ordinals) {
			return Source{}, false
		}
		ord := ordinals[pos]
		pos++
		n := idx.Inodes[ord]
		f, err := os.Open(n.hostPath)
		if err != nil {
			return Source{R: errReader{err}, Tag: ord}, true
		}
		curFile = f
		return Source{R: f, Tag: ord}, true
	}

	ck := NewChunker(next, rollsum.New(), fileChunkBits)
	for {
		chunk, err := ck.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		block := blockFromChunk(chunk, func(tag int) string { return idx.Inodes[tag].hostPath })
		bs.Insert(chunk.Hash, block)

		for _, p := range chunk.Parts {
			n := idx.Inodes[p.Tag]
			n.Content = append(n.Content, ContentBlockEntry{
				Hash:   chunk.Hash,
				Offset: p.BlockStart,
				Length: p.FileEnd - p.FileStart,
			})
		}
		if progress != nil {
			progress(chunk.Len)
		}
	}
	return nil
}

// StoreIndex serialises idx to a temporary file, chunks that file at B=12,
// inserts the resulting blocks, persists them, and returns a new reference
// Index carrying just the collected ContentBlockEntry list. The caller is
// expected to call StoreIndex repeatedly (see Ingest) until the returned
// Index's Content collapses to a single entry.
func StoreIndex(idx *Index, bs *BlockStore) (*Index, error) {
	tmp, err := os.CreateTemp(".", "cdcfs-index-*")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if err := EncodeIndex(tmp, idx); err != nil {
		return nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	used := false
	next := func() (Source, bool) {
		if used {
			return Source{}, false
		}
		used = true
		return Source{R: tmp, Tag: 0}, true
	}

	ck := NewChunker(next, rollsum.New(), indexChunkBits)
	var refs []ContentBlockEntry
	for {
		chunk, err := ck.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		block := blockFromChunk(chunk, func(int) string { return tmpPath })
		bs.Insert(chunk.Hash, block)
		for _, p := range chunk.Parts {
			refs = append(refs, ContentBlockEntry{
				Hash:   chunk.Hash,
				Offset: p.BlockStart,
				Length: p.FileEnd - p.FileStart,
			})
		}
	}

	if err := bs.Persist(); err != nil {
		return nil, err
	}
	return &Index{Version: indexFormatVersion, Content: refs}, nil
}

// Ingest runs the whole pipeline: walk rootPath, chunk and store every
// regular file's bytes, then recursively chunk the serialised index until a
// single root reference remains. That reference is the image identity.
func Ingest(bs *BlockStore, rootPath string, progress ProgressFunc) (*Index, error) {
	idx, err := FromHost(rootPath)
	if err != nil {
		return nil, err
	}
	if err := StoreInodes(idx, bs, progress); err != nil {
		return nil, err
	}
	if err := bs.Persist(); err != nil {
		return nil, err
	}

	cur := idx
	for {
		next, err := StoreIndex(cur, bs)
		if err != nil {
			return nil, err
		}
		cur = next
		if len(cur.Content) == 1 {
			return cur, nil
		}
	}
}
