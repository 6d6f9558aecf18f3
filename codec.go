package cdcfs

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// codecMode is canonical CBOR: map keys are written in sorted order, which
// is what guarantees the same tree always yields identical index bytes and
// therefore identical chunk hashes (spec.md §6).
var codecMode = mustCanonicalMode()

func mustCanonicalMode() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("cdcfs: building canonical cbor encoder: " + err.Error())
	}
	return mode
}

// EncodeIndex writes idx to w as canonical CBOR.
func EncodeIndex(w io.Writer, idx *Index) error {
	return codecMode.NewEncoder(w).Encode(idx)
}

// DecodeIndex reads one Index from r. It rejects a version it doesn't
// recognise rather than attempting a lossy upgrade.
func DecodeIndex(r io.Reader) (*Index, error) {
	var idx Index
	if err := cbor.NewDecoder(r).Decode(&idx); err != nil {
		return nil, err
	}
	if idx.Version != 0 && idx.Version != indexFormatVersion {
		return nil, ErrUnsupportedVersion
	}
	return &idx, nil
}
