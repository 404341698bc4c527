// Package commit implements the vote commitment scheme: a keyed BLAKE2b-256
// digest over (salt, canonical ranking) with the attendee secret as key. The
// secret is never persisted next to a vote; the persistence type for a vote
// record simply has no field for it.
package commit

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const (
	secretBytes = 32
	saltBytes   = 16
)

// randHex returns n cryptographically secure random bytes, hex-encoded.
func randHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewSecret returns a fresh attendee secret. Issued once at signup,
// displayed once, never stored anywhere else.
func NewSecret() (string, error) { return randHex(secretBytes) }

// NewSalt returns a fresh per-vote public salt.
func NewSalt() (string, error) { return randHex(saltBytes) }

// Commit computes the commitment digest for a vote. The secret acts as the
// BLAKE2b key; salt and ranking are domain-separated by a zero byte.
func Commit(secret, salt, ranking string) string {
	h, err := blake2b.New256([]byte(secret))
	if err != nil {
		// Key longer than 64 bytes; secrets produced by NewSecret never are.
		panic(err)
	}
	h.Write([]byte(salt))
	h.Write([]byte{0})
	h.Write([]byte(ranking))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify recomputes the commitment and compares in constant time.
func Verify(secret, salt, ranking, commitment string) bool {
	got := Commit(secret, salt, ranking)
	return subtle.ConstantTimeCompare([]byte(got), []byte(commitment)) == 1
}
