// Package c2pa locates C2PA provenance manifests inside ISO base media
// containers.
//
// A manifest travels in a uuid extension box tagged with a fixed
// 16-byte identifier. This package finds those boxes and hands back
// their raw bytes; decoding manifest internals is the job of an
// external provenance tool, with the raw bytes serving as the
// byte-accurate fallback when that tool is not installed.
package c2pa

import "aivid/internal/bmff"

// ManifestUUID is the extension identifier of C2PA manifest store
// boxes, d8fec3d6-1b0e-483c-9297-5828877ec481.
var ManifestUUID = [16]byte{
	0xd8, 0xfe, 0xc3, 0xd6, 0x1b, 0x0e, 0x48, 0x3c,
	0x92, 0x97, 0x58, 0x28, 0x87, 0x7e, 0xc4, 0x81,
}

// Manifest is one raw manifest payload found in the container.
type Manifest struct {
	// Offset is the absolute byte offset of the payload.
	Offset int64

	// Data is the raw manifest bytes, undecoded.
	Data []byte
}

// Result is the outcome of a manifest scan.
type Result struct {
	// Primary is the canonical manifest: the match at the lowest byte
	// offset. Detection decisions use only this one.
	Primary *Manifest

	// Auxiliary holds any further matches, reported for diagnostics
	// but never authoritative.
	Auxiliary []Manifest
}

// Locate scans the tree's extension boxes in document order for the
// manifest identifier. The second return value is false when the
// container carries no manifest, which is a normal state rather than
// an error.
func Locate(tree *bmff.Tree) (Result, bool) {
	hits := tree.UUIDBoxes(ManifestUUID)
	if len(hits) == 0 {
		return Result{}, false
	}
	res := Result{Primary: &Manifest{Offset: hits[0].Offset, Data: hits[0].Data}}
	for _, h := range hits[1:] {
		res.Auxiliary = append(res.Auxiliary, Manifest{Offset: h.Offset, Data: h.Data})
	}
	return res, true
}
