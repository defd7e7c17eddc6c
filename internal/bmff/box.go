// Package bmff parses the box structure of ISO Base Media File Format
// containers (MP4, M4V, M4A, MOV, 3GP, 3G2).
//
// The parser builds a read-only tree of typed, length-prefixed boxes and
// never fails on malformed input: a corrupt size field clamps to the
// bytes actually available and marks the tree truncated, so downstream
// analysis always has a partial structure to work with.
//
// The tree retains the byte source it was parsed from; query helpers
// read payload bytes lazily. Callers must keep the source open for the
// lifetime of the tree.
package bmff

import (
	"path/filepath"
	"strings"
)

// Box is one typed, length-prefixed record in the container.
type Box struct {
	// Type is the four-character type code.
	Type string

	// Offset is the absolute byte offset of the box header.
	Offset int64

	// Size is the total box size in bytes, clamped to the bytes that
	// were actually available when the declared size overran.
	Size int64

	// PayloadOffset and PayloadSize delimit the box payload, past the
	// header, any extended size field, and the extension identifier of
	// uuid boxes.
	PayloadOffset int64
	PayloadSize   int64

	// UUID is the 16-byte extension identifier of a uuid box.
	UUID [16]byte

	// Children are the sub-boxes of a container box, in document order.
	Children []*Box
}

// IsUUID reports whether the box is an extension-variant (uuid) box.
func (b *Box) IsUUID() bool { return b.Type == TypeUUID }

// TruncationReason classifies why a tree is partial.
type TruncationReason string

const (
	ReasonNone               TruncationReason = ""
	ReasonTruncated          TruncationReason = "truncated"
	ReasonInvalidSize        TruncationReason = "invalid_size"
	ReasonUnsupportedVersion TruncationReason = "unsupported_version"
)

// TypeUUID is the type code of extension-variant boxes, which carry a
// 16-byte identifier in place of a registered four-character code.
const TypeUUID = "uuid"

// containerTypes are the box types whose payload is a sequence of child
// boxes and is therefore descended into.
var containerTypes = map[string]bool{
	"moov": true,
	"trak": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
	"udta": true,
	"meta": true,
	"ilst": true,
	"edts": true,
	"dinf": true,
	"sinf": true,
	"schi": true,
	"tref": true,
	"gmhd": true,
	"wave": true,
}

// Extensions lists the file extensions of the ISO base media family
// handled by this package.
var Extensions = []string{".mp4", ".m4v", ".m4a", ".mov", ".3gp", ".3g2"}

// IsContainerFile reports whether the path has an ISO base media family
// extension.
func IsContainerFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
