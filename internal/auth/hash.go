package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// SecretMatches сравнивает секрет в константное время независимо от длины.
func SecretMatches(expected, got string) bool {
	a := sha256.Sum256([]byte(expected))
	b := sha256.Sum256([]byte(got))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
