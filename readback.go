package cdcfs

import (
	"io"
	"os"
)

// LoadFromFile opens path and stream-decodes exactly one Index from it.
// This is how a named image's root-reference file is read.
func LoadFromFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeIndex(f)
}

// contentChain builds the lazy, forward-readable stream that reassembles
// entries' bytes from bs: Take(block.Chain().Seek(entry.Offset), entry.Length)
// for each entry, concatenated by a Chain. A hash absent from bs surfaces as
// ErrBlockNotFound on the first read that reaches it, not eagerly.
func contentChain(entries []ContentBlockEntry, bs *BlockStore) *Chain {
	i := 0
	return NewChain(func() (io.Reader, bool) {
		if i >= len(entries) {
			return nil, false
		}
		e := entries[i]
		i++

		block, ok := bs.Get(e.Hash)
		if !ok {
			return errReader{ErrBlockNotFound}, true
		}
		bc := block.Chain()
		if e.Offset > 0 {
			if _, err := bc.Seek(e.Offset, io.SeekCurrent); err != nil {
				return errReader{err}, true
			}
		}
		return NewTake(bc, e.Length), true
	})
}

// LoadIndex resolves ref until it is materialised: while the current Index
// is a reference, its Content entries are concatenated into a byte stream
// and decoded as the next Index. Each round of Ingest's recursive index
// chunking adds one resolution step here; an already-materialised Index is
// returned unchanged.
func LoadIndex(ref *Index, bs *BlockStore) (*Index, error) {
	cur := ref
	for cur.IsReference() {
		next, err := DecodeIndex(contentChain(cur.Content, bs))
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// FileReader returns a forward-only stream over n's bytes, reassembled from
// its content-block entries. n must be a regular-file inode.
func FileReader(n *Inode, bs *BlockStore) (*Chain, error) {
	if n.Kind != KindRegularFile {
		return nil, ErrNotRegularFile
	}
	return contentChain(n.Content, bs), nil
}
