// Package pathhash computes the stable storage key for a project path.
package pathhash

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// Length is the number of hex characters kept from the SHA-256 digest.
const Length = 16

// Hash returns the 16-hex-character prefix of SHA-256 over the given
// canonical path string. Two distinct canonical paths are assumed never to
// collide for this workload.
func Hash(canonicalPath string) string {
	sum := sha256.Sum256([]byte(canonicalPath))
	return hex.EncodeToString(sum[:])[:Length]
}

// Canonicalize resolves symlinks and makes path absolute, the same
// normalization every project-identity computation must agree on before
// hashing.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return real, nil
}
