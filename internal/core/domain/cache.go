package domain

import "time"

// CacheEntry is a single stored value with its freshness metadata.
type CacheEntry struct {
	Value     Manifest      `json:"value"`
	WrittenAt time.Time     `json:"writtenAt"`
	MaxAge    time.Duration `json:"maxAge"`
	Checksum  string        `json:"checksum"`
}

// Expired reports whether the entry is stale at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.Sub(e.WrittenAt) >= e.MaxAge
}
