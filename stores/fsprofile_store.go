// Package stores provides filesystem-backed implementations of the
// authview store interfaces, suitable for development and small deployments.
// Production deployments should use the gorm or gae subpackages.
package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	av "github.com/panyam/authview"
)

// FSProfileStore stores profiles as JSON files, one per identity id
type FSProfileStore struct {
	StoragePath string

	mu sync.Mutex
}

func NewFSProfileStore(storagePath string) *FSProfileStore {
	return &FSProfileStore{StoragePath: storagePath}
}

func (s *FSProfileStore) profilePath(id string) string {
	return filepath.Join(s.StoragePath, "profiles", id+".json")
}

// Create writes a fresh profile record. Used by signup wiring; the view
// layer itself only ever reads and partially updates.
func (s *FSProfileStore) Create(ctx context.Context, profile *av.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	return s.writeLocked(profile)
}

func (s *FSProfileStore) Get(ctx context.Context, id string) (*av.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(id)
}

func (s *FSProfileStore) Update(ctx context.Context, id string, fields map[string]any) (*av.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.readLocked(id)
	if err != nil {
		return nil, err
	}
	av.ApplyProfileFields(profile, fields)
	if err := s.writeLocked(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *FSProfileStore) readLocked(id string) (*av.Profile, error) {
	data, err := os.ReadFile(s.profilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("profile not found: %s", id)
		}
		return nil, err
	}
	var profile av.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *FSProfileStore) writeLocked(profile *av.Profile) error {
	path := s.profilePath(profile.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}
