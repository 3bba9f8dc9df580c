package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// absent is the fingerprint of a missing input file.
const absent = "absent"

// hashKey joins prefix with the SHA-256 of parts. Parts are separated by a
// NUL byte so that ("ab", "c") and ("a", "bc") never collide.
func hashKey(prefix string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		io.WriteString(h, p)
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile fingerprints an input file by content as "path=hash". A missing
// or unreadable file fingerprints as "path=absent", so creating it later
// changes the fingerprint too.
func HashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return path + "=" + absent
	}
	return path + "=" + Hash(data)
}

// HashFiles fingerprints every non-empty path.
func HashFiles(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, HashFile(p))
	}
	return out
}
