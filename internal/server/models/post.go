package models

import "time"

// Post is a user-authored entry with attached image keys.
type Post struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Images      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
