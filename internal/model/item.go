package model

import "time"

// ItemKind distinguishes posts from comments
type ItemKind string

const (
	KindPost    ItemKind = "post"    // Submission (t3)
	KindComment ItemKind = "comment" // Comment (t1)
)

// Item is one post or comment fetched from a user's public activity.
// Items are immutable once fetched; ID is Reddit's base36 id without the
// kind prefix. Posts and comments are numbered separately, so Fullname is
// the identity of an item.
type Item struct {
	ID         string    `json:"id"`
	Kind       ItemKind  `json:"kind"`
	Title      string    `json:"title,omitempty"` // Posts only
	Body       string    `json:"body"`
	Subreddit  string    `json:"subreddit,omitempty"`
	CreatedUTC time.Time `json:"created_utc"`
	Permalink  string    `json:"permalink"` // Absolute URL
}

// Fullname returns the Reddit "thing" name (t3_xxx / t1_xxx)
func (i Item) Fullname() string {
	if i.Kind == KindPost {
		return "t3_" + i.ID
	}
	return "t1_" + i.ID
}

// Newer reports whether a sorts before b in recency-first order.
// Ties on creation time fall back to ID, then kind, so ordering is total.
func Newer(a, b Item) bool {
	if !a.CreatedUTC.Equal(b.CreatedUTC) {
		return a.CreatedUTC.After(b.CreatedUTC)
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.Kind > b.Kind
}
