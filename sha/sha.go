// Package sha computes SHA-256 digests of strings, rendered as 64 lowercase hex characters
package sha

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"unicode/utf8"
)

// Size is the length of a hex digest
const Size = sha256.Size * 2

var (
	// ErrInvalidUTF8 is returned when the input string is not valid UTF-8
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")
	// ErrInvalidDigest is returned by Verify when the digest is not a 64 character hex string
	ErrInvalidDigest = errors.New("digest is not a SHA-256 hex string")
)

// Digest returns the SHA-256 digest of the UTF-8 encoding of input
func Digest(input string) (string, error) {
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return Sum([]byte(input)), nil
}

// MustDigest is the same as Digest, except it panics on error
func MustDigest(input string) string {
	d, err := Digest(input)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum returns the SHA-256 digest of data
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether digest (case-insensitive hex) is the digest of input
//
// the comparison is constant time
func Verify(input string, digest string) (bool, error) {
	if len(digest) != Size {
		return false, ErrInvalidDigest
	}
	want, err := hex.DecodeString(strings.ToLower(digest))
	if err != nil {
		return false, ErrInvalidDigest
	}
	if !utf8.ValidString(input) {
		return false, ErrInvalidUTF8
	}
	sum := sha256.Sum256([]byte(input))
	return subtle.ConstantTimeCompare(sum[:], want) == 1, nil
}
