package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the hex SHA-256 digest stored in place of a refresh token.
// Refresh tokens are high-entropy signed strings, so an unsalted fast hash is
// enough to keep a database dump from yielding usable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
