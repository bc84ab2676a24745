package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/persona/internal/model"
)

// LayeredStore keeps recently used records in memory in front of a
// persistent store. Records are cloned on the way in and out.
type LayeredStore struct {
	memory *gocache.Cache
	disk   UserStore
}

// NewLayeredStore wraps disk with an in-memory layer
func NewLayeredStore(disk UserStore, memoryTTL time.Duration) *LayeredStore {
	return &LayeredStore{
		memory: gocache.New(memoryTTL, 10*time.Minute),
		disk:   disk,
	}
}

// Read checks memory first, then the persistent store
func (s *LayeredStore) Read(user string) (*model.UserRecord, error) {
	key := NormalizeUser(user)
	if val, found := s.memory.Get(key); found {
		return val.(*model.UserRecord).Clone(), nil
	}

	rec, err := s.disk.Read(key)
	if err != nil || rec == nil {
		return rec, err
	}

	s.memory.SetDefault(key, rec.Clone())
	return rec, nil
}

// Write persists first, then refreshes the memory layer
func (s *LayeredStore) Write(user string, rec *model.UserRecord) error {
	key := NormalizeUser(user)
	if err := s.disk.Write(key, rec); err != nil {
		s.memory.Delete(key)
		return err
	}
	s.memory.SetDefault(key, rec.Clone())
	return nil
}

// Delete removes the record from both layers
func (s *LayeredStore) Delete(user string) error {
	key := NormalizeUser(user)
	s.memory.Delete(key)
	return s.disk.Delete(key)
}

// List delegates to the persistent store
func (s *LayeredStore) List() ([]string, error) {
	return s.disk.List()
}
