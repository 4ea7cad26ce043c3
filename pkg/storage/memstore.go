package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/vordr/pkg/types"
)

// MemStore is an in-memory Store with the same uniqueness guarantees as
// BoltStore. Records do not survive Close.
type MemStore struct {
	mu      sync.Mutex
	volumes map[string]types.Volume // id -> record
	names   map[string]string       // name -> id
	now     func() time.Time
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		volumes: make(map[string]types.Volume),
		names:   make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemStore) CreateVolume(volume *types.Volume) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[volume.Name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, volume.Name)
	}
	if _, ok := s.volumes[volume.ID]; ok {
		return fmt.Errorf("%w: duplicate id %s", ErrAlreadyExists, volume.ID)
	}

	volume.CreatedAt = s.now().UTC()
	if volume.State == "" {
		volume.State = types.VolumeStateCreated
	}
	s.volumes[volume.ID] = *volume
	s.names[volume.Name] = volume.ID
	return nil
}

func (s *MemStore) GetVolume(id string) (*types.Volume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	volume, ok := s.volumes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &volume, nil
}

func (s *MemStore) GetVolumeByName(name string) (*types.Volume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	volume := s.volumes[id]
	return &volume, nil
}

func (s *MemStore) ListVolumes() ([]*types.Volume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	volumes := make([]*types.Volume, 0, len(s.volumes))
	for _, v := range s.volumes {
		volume := v
		volumes = append(volumes, &volume)
	}
	return volumes, nil
}

func (s *MemStore) MarkVolumeRemoving(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	volume, ok := s.volumes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	volume.State = types.VolumeStateRemoving
	s.volumes[id] = volume
	return nil
}

func (s *MemStore) DeleteVolume(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	volume, ok := s.volumes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.names[volume.Name] == id {
		delete(s.names, volume.Name)
	}
	delete(s.volumes, id)
	return nil
}

// Close is a no-op
func (s *MemStore) Close() error {
	return nil
}
