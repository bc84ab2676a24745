package cache

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ppiankov/persona/internal/model"
)

// ErrCacheCorrupt marks a cache file that exists but cannot be decoded.
// Callers treat it as a miss; the next successful write replaces the file.
var ErrCacheCorrupt = errors.New("cache corrupt")

// UserStore persists one activity record per normalized user
type UserStore interface {
	// Read returns the record for user, or nil, nil on a miss
	Read(user string) (*model.UserRecord, error)

	// Write atomically replaces the record for user
	Write(user string, rec *model.UserRecord) error

	// Delete removes the record for user (missing records are not an error)
	Delete(user string) error

	// List returns the keys of all stored records
	List() ([]string, error)
}

var safeKey = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// NormalizeUser maps case and prefix variants of a username to one key
func NormalizeUser(user string) string {
	u := strings.ToLower(strings.TrimSpace(user))
	u = strings.TrimPrefix(u, "/")
	u = strings.TrimPrefix(u, "u/")
	u = strings.TrimPrefix(u, "user/")
	return strings.Trim(u, "/")
}

// fileKey returns the file name stem for a normalized user key.
// Names outside the Reddit username alphabet are hashed.
func fileKey(key string) string {
	if safeKey.MatchString(key) {
		return key
	}
	return strings.ReplaceAll(CacheKey(key), ":", "_")
}

// IsStale reports whether rec needs a refresh: it is missing, or it was
// fetched more than maxAge before now. A zero maxAge is always stale.
func IsStale(rec *model.UserRecord, maxAge time.Duration, now time.Time) bool {
	if rec == nil || maxAge <= 0 {
		return true
	}
	return now.Sub(rec.LastFetched) > maxAge
}
