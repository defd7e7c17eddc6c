package store

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint computes the BLAKE2b-256 digest of a file's contents.
func Fingerprint(path string) ([32]byte, error) {
	var fp [32]byte
	f, err := os.Open(path)
	if err != nil {
		return fp, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return fp, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return fp, fmt.Errorf("hash: %w", err)
	}
	copy(fp[:], h.Sum(nil))
	return fp, nil
}
