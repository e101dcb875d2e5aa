package storage

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
)

const (
	// SHA1Short is the short display length used in CLI output.
	SHA1Short = 7
	// SHA1MinLen is the minimum prefix length considered for ID matching.
	SHA1MinLen = 4

	idEntropy = 4096
)

// NewID returns a random 40-char hex identifier for an archived transcript.
func NewID() string {
	b := make([]byte, idEntropy)
	_, _ = rand.Read(b)
	sum := sha1.Sum(b) //nolint:gosec // identifier, not a security boundary
	return hex.EncodeToString(sum[:])
}
