package cache

import (
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/persona/internal/model"
)

// MemoryStore is a process-local UserStore, used when the disk cache is
// disabled. Records expire after the configured TTL.
type MemoryStore struct {
	memory *gocache.Cache
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{memory: gocache.New(ttl, 10*time.Minute)}
}

// Read returns a copy of the stored record
func (s *MemoryStore) Read(user string) (*model.UserRecord, error) {
	if val, found := s.memory.Get(NormalizeUser(user)); found {
		return val.(*model.UserRecord).Clone(), nil
	}
	return nil, nil
}

// Write stores a copy of rec
func (s *MemoryStore) Write(user string, rec *model.UserRecord) error {
	s.memory.SetDefault(NormalizeUser(user), rec.Clone())
	return nil
}

// Delete removes the record for user
func (s *MemoryStore) Delete(user string) error {
	s.memory.Delete(NormalizeUser(user))
	return nil
}

// List returns the stored keys in sorted order
func (s *MemoryStore) List() ([]string, error) {
	items := s.memory.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
