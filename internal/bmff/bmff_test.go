package bmff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// box builds a well-formed box with a 32-bit size field.
func box(typ string, payload ...[]byte) []byte {
	var body []byte
	for _, p := range payload {
		body = append(body, p...)
	}
	out := u32(uint32(8 + len(body)))
	out = append(out, typ...)
	return append(out, body...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func parseBytes(data []byte) *Tree {
	return Parse(bytes.NewReader(data), int64(len(data)))
}

// hdlrPayload builds a handler description payload with a NUL-terminated
// name field.
func hdlrPayload(handlerType, name string) []byte {
	p := make([]byte, 24)
	copy(p[8:12], handlerType)
	return append(p, append([]byte(name), 0)...)
}

func TestParseTopLevel(t *testing.T) {
	data := concat(
		box("ftyp", []byte("isom"), u32(0x200), []byte("isomiso2")),
		box("free"),
		box("mdat", bytes.Repeat([]byte{0xab}, 32)),
	)
	tree := parseBytes(data)

	if tree.Truncated {
		t.Fatalf("unexpected truncation: %s", tree.Reason)
	}
	if len(tree.Boxes) != 3 {
		t.Fatalf("expected 3 boxes, got %d", len(tree.Boxes))
	}
	want := []string{"ftyp", "free", "mdat"}
	for i, b := range tree.Boxes {
		if b.Type != want[i] {
			t.Errorf("box %d: type %q, want %q", i, b.Type, want[i])
		}
	}
	if got := tree.MajorBrand(); got != "isom" {
		t.Errorf("major brand %q, want isom", got)
	}
}

func TestChildrenTileParentPayload(t *testing.T) {
	trak := box("trak",
		box("tkhd", make([]byte, 84)),
		box("mdia", box("hdlr", hdlrPayload("vide", "VideoHandler"))),
	)
	moov := box("moov", box("mvhd", make([]byte, 100)), trak, box("udta"))
	tree := parseBytes(moov)

	if tree.Truncated {
		t.Fatalf("unexpected truncation: %s", tree.Reason)
	}

	var check func(b *Box)
	check = func(b *Box) {
		if b.Type == "meta" || len(b.Children) == 0 {
			return
		}
		off := b.PayloadOffset
		for _, c := range b.Children {
			if c.Offset != off {
				t.Errorf("%s child %s: offset %d, want %d (gap or overlap)", b.Type, c.Type, c.Offset, off)
			}
			if c.Offset+c.Size > b.PayloadOffset+b.PayloadSize {
				t.Errorf("%s child %s extends past parent payload", b.Type, c.Type)
			}
			off = c.Offset + c.Size
			check(c)
		}
		if off != b.PayloadOffset+b.PayloadSize {
			t.Errorf("%s children end at %d, want %d", b.Type, off, b.PayloadOffset+b.PayloadSize)
		}
	}
	for _, b := range tree.Boxes {
		check(b)
	}
}

func TestExtendedSize(t *testing.T) {
	payload := bytes.Repeat([]byte{1}, 24)
	data := concat(u32(1), []byte("mdat"), u64(uint64(16+len(payload))), payload)
	tree := parseBytes(data)

	if tree.Truncated {
		t.Fatalf("unexpected truncation: %s", tree.Reason)
	}
	if len(tree.Boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(tree.Boxes))
	}
	b := tree.Boxes[0]
	if b.Size != int64(len(data)) {
		t.Errorf("size %d, want %d", b.Size, len(data))
	}
	if b.PayloadOffset != 16 || b.PayloadSize != int64(len(payload)) {
		t.Errorf("payload at %d len %d, want 16 len %d", b.PayloadOffset, b.PayloadSize, len(payload))
	}
}

func TestSizeZeroExtendsToEnd(t *testing.T) {
	data := concat(box("ftyp", []byte("mp42")), u32(0), []byte("mdat"), bytes.Repeat([]byte{7}, 40))
	tree := parseBytes(data)

	if tree.Truncated {
		t.Fatalf("unexpected truncation: %s", tree.Reason)
	}
	if len(tree.Boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(tree.Boxes))
	}
	last := tree.Boxes[1]
	if last.Offset+last.Size != int64(len(data)) {
		t.Errorf("size-zero box ends at %d, want %d", last.Offset+last.Size, len(data))
	}
}

func TestOversizedBoxClampsAndMarksTruncated(t *testing.T) {
	data := concat(u32(1<<20), []byte("mdat"), bytes.Repeat([]byte{9}, 16))
	tree := parseBytes(data)

	if !tree.Truncated {
		t.Fatal("expected truncation flag")
	}
	if tree.Reason != ReasonTruncated {
		t.Errorf("reason %q, want %q", tree.Reason, ReasonTruncated)
	}
	if len(tree.Boxes) != 1 {
		t.Fatalf("expected clamped partial box, got %d boxes", len(tree.Boxes))
	}
	if end := tree.Boxes[0].Offset + tree.Boxes[0].Size; end != int64(len(data)) {
		t.Errorf("clamped box ends at %d, want %d", end, len(data))
	}
}

func TestOversizedChildStaysInsideParent(t *testing.T) {
	// Child declares more bytes than the parent payload holds.
	child := concat(u32(1000), []byte("tkhd"), bytes.Repeat([]byte{3}, 8))
	data := box("moov", child)
	tree := parseBytes(data)

	if !tree.Truncated {
		t.Fatal("expected truncation flag")
	}
	moov := tree.Boxes[0]
	if len(moov.Children) != 1 {
		t.Fatalf("expected 1 clamped child, got %d", len(moov.Children))
	}
	c := moov.Children[0]
	if c.Offset+c.Size > moov.PayloadOffset+moov.PayloadSize {
		t.Error("clamped child extends past parent payload")
	}
}

func TestInvalidSize(t *testing.T) {
	data := concat(u32(4), []byte("junk"), bytes.Repeat([]byte{0}, 16))
	tree := parseBytes(data)

	if !tree.Truncated || tree.Reason != ReasonInvalidSize {
		t.Errorf("truncated=%v reason=%q, want invalid_size", tree.Truncated, tree.Reason)
	}
	if len(tree.Boxes) != 0 {
		t.Errorf("expected no boxes past an invalid size, got %d", len(tree.Boxes))
	}
}

func TestMetaVersionHandling(t *testing.T) {
	child := box("hdlr", hdlrPayload("mdir", ""))

	v0 := box("meta", []byte{0, 0, 0, 0}, child)
	tree := parseBytes(v0)
	if tree.Truncated {
		t.Fatalf("unexpected truncation: %s", tree.Reason)
	}
	if len(tree.Boxes[0].Children) != 1 {
		t.Fatalf("meta v0: expected 1 child, got %d", len(tree.Boxes[0].Children))
	}

	v1 := box("meta", []byte{1, 0, 0, 0}, child)
	tree = parseBytes(v1)
	if !tree.Truncated || tree.Reason != ReasonUnsupportedVersion {
		t.Errorf("meta v1: truncated=%v reason=%q, want unsupported_version", tree.Truncated, tree.Reason)
	}
	if len(tree.Boxes[0].Children) != 0 {
		t.Error("meta v1: should not descend into children")
	}
}

func TestUUIDBoxes(t *testing.T) {
	id := [16]byte{0xd8, 0xfe, 0xc3, 0xd6, 0x1b, 0x0e, 0x48, 0x3c, 0x92, 0x97, 0x58, 0x28, 0x87, 0x7e, 0xc4, 0x81}
	other := [16]byte{1, 2, 3, 4}

	data := concat(
		box("ftyp", []byte("mp42")),
		box("uuid", id[:], []byte("first payload")),
		box("uuid", other[:], []byte("unrelated")),
		box("uuid", id[:], []byte("second payload")),
	)
	tree := parseBytes(data)

	got := tree.UUIDBoxes(id)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if string(got[0].Data) != "first payload" || string(got[1].Data) != "second payload" {
		t.Errorf("payloads out of order: %q, %q", got[0].Data, got[1].Data)
	}
	if got[0].Offset >= got[1].Offset {
		t.Error("matches not in document order")
	}
	// Offset points past the identifier.
	wantOffset := int64(len(box("ftyp", []byte("mp42")))) + 8 + 16
	if got[0].Offset != wantOffset {
		t.Errorf("first payload offset %d, want %d", got[0].Offset, wantOffset)
	}
}

func TestFindPath(t *testing.T) {
	data := box("moov",
		box("trak", box("mdia", box("hdlr", hdlrPayload("soun", "SoundHandler")))),
		box("trak", box("mdia", box("hdlr", hdlrPayload("vide", "VideoHandler")))),
	)
	tree := parseBytes(data)

	b := tree.Find("moov.trak.mdia.hdlr")
	if b == nil {
		t.Fatal("path not resolved")
	}
	// First match in document order is the sound track's handler.
	p, err := tree.Payload(b, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(p, []byte("SoundHandler")) {
		t.Errorf("resolved wrong box: payload %q", p)
	}
	if tree.Find("moov.trak.minf") != nil {
		t.Error("nonexistent path resolved")
	}
}

func TestHandlerName(t *testing.T) {
	data := box("moov", box("trak", box("mdia", box("hdlr", hdlrPayload("vide", "Google Video Handler")))))
	if got := parseBytes(data).HandlerName(); got != "Google Video Handler" {
		t.Errorf("handler name %q", got)
	}

	// QuickTime counted string.
	name := "Core Media Video"
	counted := make([]byte, 24)
	copy(counted[8:12], "vide")
	counted = append(counted, byte(len(name)))
	counted = append(counted, name...)
	data = box("moov", box("trak", box("mdia", box("hdlr", counted))))
	if got := parseBytes(data).HandlerName(); got != name {
		t.Errorf("counted handler name %q, want %q", got, name)
	}
}

func TestEncoderTag(t *testing.T) {
	dataAtom := box("data", u32(1), u32(0), []byte("Lavf61.1.100"))
	tooEntry := box("\xa9too", dataAtom)
	data := box("moov", box("udta", box("meta", []byte{0, 0, 0, 0}, box("ilst", tooEntry))))
	if got := parseBytes(data).EncoderTag(); got != "Lavf61.1.100" {
		t.Errorf("ilst encoder tag %q", got)
	}

	// QuickTime user-data form: 2-byte length, 2-byte language, text.
	text := "HandBrake 1.7.2"
	body := concat([]byte{0, byte(len(text))}, []byte{0x55, 0xc4}, []byte(text))
	data = box("moov", box("udta", box("\xa9too", body)))
	if got := parseBytes(data).EncoderTag(); got != text {
		t.Errorf("udta encoder tag %q", got)
	}
}

func TestNeverReadsPastEnd(t *testing.T) {
	// Header only, no payload bytes at all.
	data := concat(u32(24), []byte("moov"))
	tree := parseBytes(data)
	if !tree.Truncated {
		t.Fatal("expected truncation flag")
	}

	// Truncated mid-header.
	tree = parseBytes(data[:6])
	if len(tree.Boxes) != 0 {
		t.Errorf("expected no boxes from a partial header, got %d", len(tree.Boxes))
	}
}
