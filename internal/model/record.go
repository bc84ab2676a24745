package model

import "time"

// RecordVersion is the current on-disk schema version of UserRecord
const RecordVersion = 1

// Cursor holds the pagination markers for both activity streams.
// An empty marker means the stream's history was fetched completely, or was
// never fetched.
type Cursor struct {
	Posts    string `json:"posts,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// IsZero reports whether neither stream has a pending page
func (c Cursor) IsZero() bool {
	return c.Posts == "" && c.Comments == ""
}

// UserRecord is the cached activity of one user.
// Items are ordered most recent first and item fullnames are unique.
type UserRecord struct {
	Version     int       `json:"version"`
	Username    string    `json:"username"`
	Items       []Item    `json:"items"`
	LastFetched time.Time `json:"last_fetched"`
	Cursor      Cursor    `json:"cursor"`
	Partial     bool      `json:"partial,omitempty"` // Last fetch ended early
	Note        string    `json:"note,omitempty"`    // Why the last fetch was partial
}

// IDs returns the set of item fullnames held by the record
func (r *UserRecord) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Items))
	for _, item := range r.Items {
		ids[item.Fullname()] = struct{}{}
	}
	return ids
}

// Clone returns a deep copy, so cached records are never mutated in place
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Items = append([]Item(nil), r.Items...)
	return &c
}
