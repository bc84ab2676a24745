package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ppiankov/persona/internal/model"
)

// DiskStore keeps one JSON file per user under <dir>/users
type DiskStore struct {
	dir string
}

// NewDiskStore creates a disk-backed user store rooted at dir
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: filepath.Join(dir, "users")}
}

// Read loads the record for user
func (s *DiskStore) Read(user string) (*model.UserRecord, error) {
	key := NormalizeUser(user)
	if key == "" {
		return nil, errors.New("empty user")
	}

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read record for %s", key)
	}

	var rec model.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(ErrCacheCorrupt, "decode record for %s: %v", key, err)
	}
	if rec.Version > model.RecordVersion {
		return nil, errors.Wrapf(ErrCacheCorrupt, "record for %s has unsupported version %d", key, rec.Version)
	}
	if rec.Version == 0 {
		rec.Version = model.RecordVersion
	}

	return &rec, nil
}

// Write atomically replaces the record for user
func (s *DiskStore) Write(user string, rec *model.UserRecord) error {
	key := NormalizeUser(user)
	if key == "" {
		return errors.New("empty user")
	}
	if rec == nil {
		return errors.New("nil record")
	}

	if len(rec.IDs()) != len(rec.Items) {
		return errors.Errorf("record for %s holds duplicate items", key)
	}

	out := rec.Clone()
	out.Version = model.RecordVersion

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	if err := WriteFileAtomic(s.path(key), data, 0644); err != nil {
		return errors.Wrapf(err, "write record for %s", key)
	}
	return nil
}

// Delete removes the record for user
func (s *DiskStore) Delete(user string) error {
	err := os.Remove(s.path(NormalizeUser(user)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete record")
	}
	return nil
}

// List returns the file keys of all stored records, sorted
func (s *DiskStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, fileKey(key)+".json")
}
