package models

import "time"

// URL represents a shortened URL record and its associated metadata.
type URL struct {
	// ID is the store-assigned identifier of the record.
	ID int64
	// ShortCode is the unique short code associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// TotalClicks tracks the number of successful redirects through the short code.
	TotalClicks int64
	// CreatedAt is the timestamp indicating when the record was created.
	CreatedAt time.Time
	// ExpiresAt is the timestamp after which the short code stops redirecting.
	// The record itself is kept for audit.
	ExpiresAt time.Time
}
