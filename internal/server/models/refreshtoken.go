package models

import "time"

// RefreshToken is the single refresh token currently on file for a user.
// Only the SHA-256 digest of the token string is stored.
type RefreshToken struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
