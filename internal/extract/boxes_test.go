package extract

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"aivid/internal/c2pa"
	"aivid/internal/detect"
	"aivid/internal/evidence"
)

func mkbox(typ string, payload ...[]byte) []byte {
	var body []byte
	for _, p := range payload {
		body = append(body, p...)
	}
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(8+len(body)))
	out = append(out, typ...)
	return append(out, body...)
}

func writeContainer(t *testing.T, name string, boxes ...[]byte) string {
	t.Helper()
	var data []byte
	for _, b := range boxes {
		data = append(data, b...)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func hdlr(name string) []byte {
	p := make([]byte, 24)
	copy(p[8:12], "vide")
	return mkbox("hdlr", p, append([]byte(name), 0))
}

func markers() []string {
	sig := detect.DefaultSignatures()
	out := make([]string, 0, len(sig.Generators))
	for m := range sig.Generators {
		out = append(out, m)
	}
	return out
}

func TestContainerExtractsManifestEvidence(t *testing.T) {
	manifest := []byte("jumbf...c2pa...http://cv.iptc.org/newscodes/digitalsourcetype/trainedAlgorithmicMedia...sora")
	path := writeContainer(t, "sample.mp4",
		mkbox("ftyp", []byte("mp42"), make([]byte, 8)),
		mkbox("moov", mkbox("trak", mkbox("mdia", hdlr("VideoHandler")))),
		mkbox("uuid", c2pa.ManifestUUID[:], manifest),
	)

	set := evidence.NewSet()
	ex := NewContainer(markers())
	if err := ex.Extract(context.Background(), path, set); err != nil {
		t.Fatal(err)
	}

	if v, _ := set.First(evidence.KindManifestPresent); v != "true" {
		t.Error("manifest presence not recorded")
	}
	if v, _ := set.First(evidence.KindDigitalSourceType); v != "trainedAlgorithmicMedia" {
		t.Errorf("digital source type %q", v)
	}
	if v, _ := set.First(evidence.KindHandlerName); v != "VideoHandler" {
		t.Errorf("handler name %q", v)
	}
	if v, _ := set.First(evidence.KindClaimGenerator); v != "sora" {
		t.Errorf("claim generator marker %q", v)
	}
	if v, _ := set.First(evidence.KindMajorBrand); v != "mp42" {
		t.Errorf("major brand %q", v)
	}
}

// The end-to-end scenario: a manifest-tagged extension box whose
// payload carries the trainedAlgorithmicMedia token, and nothing else,
// must come out as a High-confidence positive.
func TestManifestTokenAloneScoresHigh(t *testing.T) {
	manifest := []byte("digitalsourcetype/trainedAlgorithmicMedia")
	path := writeContainer(t, "generated.mp4",
		mkbox("ftyp", []byte("isom"), make([]byte, 8)),
		mkbox("uuid", c2pa.ManifestUUID[:], manifest),
	)

	set := evidence.NewSet()
	if err := NewContainer(nil).Extract(context.Background(), path, set); err != nil {
		t.Fatal(err)
	}

	v := detect.DefaultEngine().Evaluate(set)
	if !v.IsAIGenerated {
		t.Fatal("not classified as AI-generated")
	}
	if v.Confidence != detect.TierHigh {
		t.Errorf("confidence %s, want high", v.Confidence)
	}
}

func TestContainerSkipsForeignFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.webm")
	if err := os.WriteFile(path, []byte{0x1a, 0x45, 0xdf, 0xa3}, 0o644); err != nil {
		t.Fatal(err)
	}
	set := evidence.NewSet()
	if err := NewContainer(nil).Extract(context.Background(), path, set); err != nil {
		t.Fatal(err)
	}
	if set.Len() != 0 {
		t.Errorf("evidence recorded for a non-BMFF file: %v", set.All())
	}
}

func TestContainerMarksPartialTree(t *testing.T) {
	// Declared size overruns the file.
	oversized := make([]byte, 4)
	binary.BigEndian.PutUint32(oversized, 1<<20)
	oversized = append(oversized, "mdat"...)
	path := writeContainer(t, "truncated.mp4", mkbox("ftyp", []byte("mp42")), oversized)

	set := evidence.NewSet()
	if err := NewContainer(nil).Extract(context.Background(), path, set); err != nil {
		t.Fatalf("structural damage must not fail the extractor: %v", err)
	}
	failures := set.Failures()
	if len(failures) != 1 || failures[0].Extractor != "container" {
		t.Fatalf("expected a partial-tree diagnostic, got %v", failures)
	}
}
