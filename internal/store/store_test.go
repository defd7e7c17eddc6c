package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aivid/internal/detect"
	"aivid/internal/evidence"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "verdicts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundtrip(t *testing.T) {
	s := openStore(t)
	fp := [32]byte{1, 2, 3}
	v := detect.Verdict{
		IsAIGenerated: true,
		Generator:     "OpenAI Sora",
		Confidence:    detect.TierHigh,
		Rule:          "audio-signature-96000",
		Evidence: []evidence.Evidence{
			{Kind: evidence.KindAudioSampleRate, Value: "96000", Source: "ffprobe"},
		},
	}
	at := time.Now()

	require.NoError(t, s.Put("/videos/clip.mp4", fp, v, at))

	got, gotAt, ok, err := s.Get("/videos/clip.mp4", fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, v, got)
	assert.Equal(t, at.UnixNano(), gotAt.UnixNano())
}

func TestGetMissOnChangedFingerprint(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Put("/videos/clip.mp4", [32]byte{1}, detect.Verdict{}, time.Now()))

	_, _, ok, err := s.Get("/videos/clip.mp4", [32]byte{2})
	require.NoError(t, err)
	assert.False(t, ok, "changed content must miss the cache")
}

func TestPutReplaces(t *testing.T) {
	s := openStore(t)
	fp := [32]byte{9}
	require.NoError(t, s.Put("a.mp4", fp, detect.Verdict{Confidence: detect.TierLow, IsAIGenerated: true}, time.Now()))
	require.NoError(t, s.Put("a.mp4", fp, detect.Verdict{Confidence: detect.TierHigh, IsAIGenerated: true}, time.Now()))

	got, _, ok, err := s.Get("a.mp4", fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, detect.TierHigh, got.Confidence)
}

func TestFingerprintTracksContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	fp1, err := Fingerprint(path)
	require.NoError(t, err)

	fp2, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2, "fingerprint must be stable")

	require.NoError(t, os.WriteFile(path, []byte("edited"), 0o644))
	fp3, err := Fingerprint(path)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3, "fingerprint must change with content")
}
