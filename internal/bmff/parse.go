package bmff

import (
	"encoding/binary"
	"io"
	"math"
)

const (
	headerSize = 8

	// maxDepth bounds recursion into container boxes so that a crafted
	// file cannot exhaust the stack.
	maxDepth = 8
)

// Tree is the parsed box structure of one container file.
//
// A Tree is built once, read-only afterwards, and owns no bytes of its
// own: payload reads go through the retained source.
type Tree struct {
	// Boxes are the top-level boxes in document order.
	Boxes []*Box

	// Truncated is set when any size field could not be honoured and
	// the parser clamped to the available bytes instead.
	Truncated bool

	// Reason classifies the first truncation encountered.
	Reason TruncationReason

	src  io.ReaderAt
	size int64
}

// Parse walks the box structure of a random-access byte source.
//
// Parse never fails: malformed sizes clamp to the available region and
// set the tree's Truncated flag, yielding a partial tree.
func Parse(r io.ReaderAt, size int64) *Tree {
	t := &Tree{src: r, size: size}
	t.Boxes = t.parseRegion(0, size, 0)
	return t
}

// parseRegion reads consecutive boxes in [start, end), recursing into
// container boxes bounded strictly to their declared payload.
func (t *Tree) parseRegion(start, end int64, depth int) []*Box {
	var boxes []*Box
	pos := start
	for pos+headerSize <= end {
		var hdr [headerSize]byte
		if _, err := t.src.ReadAt(hdr[:], pos); err != nil {
			t.mark(ReasonTruncated)
			break
		}
		size := int64(binary.BigEndian.Uint32(hdr[0:4]))
		typ := string(hdr[4:8])
		payloadOff := pos + headerSize

		switch size {
		case 0:
			// Box extends to the end of the enclosing region.
			size = end - pos
		case 1:
			var ext [8]byte
			if payloadOff+8 > end {
				t.mark(ReasonTruncated)
				return boxes
			}
			if _, err := t.src.ReadAt(ext[:], payloadOff); err != nil {
				t.mark(ReasonTruncated)
				return boxes
			}
			v := binary.BigEndian.Uint64(ext[:])
			if v > math.MaxInt64 || int64(v) < headerSize+8 {
				t.mark(ReasonInvalidSize)
				return boxes
			}
			size = int64(v)
			payloadOff += 8
		default:
			if size < headerSize {
				t.mark(ReasonInvalidSize)
				return boxes
			}
		}

		if pos+size > end {
			size = end - pos
			t.mark(ReasonTruncated)
		}
		if payloadOff > pos+size {
			payloadOff = pos + size
		}

		b := &Box{
			Type:          typ,
			Offset:        pos,
			Size:          size,
			PayloadOffset: payloadOff,
			PayloadSize:   pos + size - payloadOff,
		}

		switch {
		case typ == TypeUUID:
			t.readExtensionID(b)
		case containerTypes[typ] && depth < maxDepth:
			t.parseChildren(b, depth)
		}

		boxes = append(boxes, b)
		pos += size
	}
	return boxes
}

// readExtensionID consumes the 16-byte identifier that follows the
// header of a uuid box.
func (t *Tree) readExtensionID(b *Box) {
	if b.PayloadSize < 16 {
		t.mark(ReasonTruncated)
		return
	}
	var id [16]byte
	if _, err := t.src.ReadAt(id[:], b.PayloadOffset); err != nil {
		t.mark(ReasonTruncated)
		return
	}
	b.UUID = id
	b.PayloadOffset += 16
	b.PayloadSize -= 16
}

// parseChildren descends into a container box. A meta box is a full box
// whose payload starts with a version byte and three flag bytes before
// the first child; only version 0 is defined.
func (t *Tree) parseChildren(b *Box, depth int) {
	childStart := b.PayloadOffset
	if b.Type == "meta" {
		if b.PayloadSize < 4 {
			return
		}
		var vf [4]byte
		if _, err := t.src.ReadAt(vf[:], childStart); err != nil {
			t.mark(ReasonTruncated)
			return
		}
		if vf[0] != 0 {
			t.mark(ReasonUnsupportedVersion)
			return
		}
		childStart += 4
	}
	b.Children = t.parseRegion(childStart, b.PayloadOffset+b.PayloadSize, depth+1)
}

// mark sets the truncation flag, keeping the first reason observed.
func (t *Tree) mark(r TruncationReason) {
	t.Truncated = true
	if t.Reason == ReasonNone {
		t.Reason = r
	}
}
