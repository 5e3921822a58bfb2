// Package checksum computes content digests for installed bundle files.
//
// Digests are recorded in the lockfile at install time and recomputed later
// to detect drift between the recorded and on-disk state of a file.
package checksum

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prefix identifies the digest algorithm in serialized form.
const Prefix = "sha256:"

// Bytes computes the digest of a byte slice as "sha256:<hex>".
func Bytes(data []byte) string {
	return fmt.Sprintf("%s%x", Prefix, sha256.Sum256(data))
}

// File computes the digest of a file's contents as "sha256:<hex>".
// The file is streamed, not read into memory.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return fmt.Sprintf("%s%x", Prefix, h.Sum(nil)), nil
}

// Equal compares two digests, tolerating a missing algorithm prefix on
// either side so that hand-edited lockfiles still compare correctly.
func Equal(a, b string) bool {
	return strings.TrimPrefix(a, Prefix) == strings.TrimPrefix(b, Prefix)
}
