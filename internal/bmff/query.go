package bmff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
)

// maxExtensionPayload caps the bytes read from a single uuid box.
// Provenance manifests run to a few megabytes at most.
const maxExtensionPayload = 16 << 20

// Find resolves a dotted path of type codes, e.g. "moov.trak.mdia.hdlr",
// to the first matching box in document order. It returns nil when no
// box matches the full path.
func (t *Tree) Find(path string) *Box {
	return findPath(t.Boxes, strings.Split(path, "."))
}

func findPath(boxes []*Box, parts []string) *Box {
	for _, b := range boxes {
		if b.Type != parts[0] {
			continue
		}
		if len(parts) == 1 {
			return b
		}
		if m := findPath(b.Children, parts[1:]); m != nil {
			return m
		}
	}
	return nil
}

// FindFirst returns the first box of the given type anywhere in the
// tree, in document order.
func (t *Tree) FindFirst(typ string) *Box {
	var found *Box
	t.Walk(func(b *Box) bool {
		if found == nil && b.Type == typ {
			found = b
		}
		return found == nil
	})
	return found
}

// Walk visits every box in document order. The callback returns false
// to stop the walk.
func (t *Tree) Walk(fn func(*Box) bool) {
	walk(t.Boxes, fn)
}

func walk(boxes []*Box, fn func(*Box) bool) bool {
	for _, b := range boxes {
		if !fn(b) {
			return false
		}
		if !walk(b.Children, fn) {
			return false
		}
	}
	return true
}

// Payload reads up to limit bytes of a box's payload from the retained
// source. A limit of zero reads the whole payload.
func (t *Tree) Payload(b *Box, limit int64) ([]byte, error) {
	n := b.PayloadSize
	if limit > 0 && n > limit {
		n = limit
	}
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := t.src.ReadAt(buf, b.PayloadOffset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

// MajorBrand returns the major brand recorded in the file type box, or
// "" when the file has none.
func (t *Tree) MajorBrand() string {
	b := t.Find("ftyp")
	if b == nil {
		return ""
	}
	p, err := t.Payload(b, 4)
	if err != nil || len(p) < 4 {
		return ""
	}
	return strings.TrimSpace(string(p[:4]))
}

// HandlerName returns the handler name string from the first handler
// description box in the tree, or "" when absent. Both the counted
// string written by QuickTime tools and the NUL-terminated string of
// ISO files are handled.
func (t *Tree) HandlerName() string {
	b := t.FindFirst("hdlr")
	if b == nil {
		return ""
	}
	p, err := t.Payload(b, 512)
	if err != nil || len(p) <= 24 {
		return ""
	}
	// version/flags, pre_defined, handler_type and 12 reserved bytes
	// precede the name field.
	name := p[24:]
	if n := int(name[0]); n > 0 && n < len(name) && printable(name[1:1+n]) {
		return strings.TrimSpace(string(name[1 : 1+n]))
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if !printable(name) {
		return ""
	}
	return strings.TrimSpace(string(name))
}

// EncoderTag returns the encoder/tool string from the container's
// textual metadata: the iTunes-style ilst entry when present, otherwise
// the QuickTime user-data box.
func (t *Tree) EncoderTag() string {
	// ilst entry: the \xa9too box wraps a data atom whose payload is
	// 4 bytes of type, 4 bytes of locale, then the text.
	if b := t.Find("moov.udta.meta.ilst.\xa9too"); b != nil {
		p, err := t.Payload(b, 512)
		if err == nil && len(p) > 16 && string(p[4:8]) == "data" {
			if s := strings.TrimSpace(string(p[16:])); printable([]byte(s)) {
				return s
			}
		}
	}
	// QuickTime user data: 2-byte length, 2-byte language, then text.
	if b := t.Find("moov.udta.\xa9too"); b != nil {
		p, err := t.Payload(b, 512)
		if err == nil && len(p) > 4 {
			n := int(binary.BigEndian.Uint16(p[0:2]))
			text := p[4:]
			if n <= len(text) {
				text = text[:n]
			}
			if s := strings.TrimSpace(string(text)); printable([]byte(s)) {
				return s
			}
		}
	}
	return ""
}

// ExtensionBox is a uuid box payload resolved to raw bytes.
type ExtensionBox struct {
	// Offset is the absolute byte offset of the payload, past the
	// 16-byte identifier.
	Offset int64

	// Data is the raw payload.
	Data []byte
}

// UUIDBoxes returns the payloads of all extension-variant boxes whose
// identifier equals id, in document order.
func (t *Tree) UUIDBoxes(id [16]byte) []ExtensionBox {
	var out []ExtensionBox
	t.Walk(func(b *Box) bool {
		if b.IsUUID() && b.UUID == id {
			data, err := t.Payload(b, maxExtensionPayload)
			if err == nil {
				out = append(out, ExtensionBox{Offset: b.PayloadOffset, Data: data})
			}
		}
		return true
	})
	return out
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && c != '\t' {
			return false
		}
	}
	return true
}
