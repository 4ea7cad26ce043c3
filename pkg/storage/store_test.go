package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/vordr/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories returns every Store implementation under test
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"bolt": func(t *testing.T) Store {
			s, err := NewBoltStore(filepath.Join(t.TempDir(), "state", DefaultDBFile))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"memory": func(t *testing.T) Store {
			return NewMemStore()
		},
	}
}

func newVolume(id, name string) *types.Volume {
	return &types.Volume{
		ID:         id,
		Name:       name,
		Driver:     types.DefaultVolumeDriver,
		Mountpoint: "/var/lib/vordr/volumes/" + name,
		Labels:     `{"env":"prod"}`,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			before := time.Now().Add(-time.Second)
			vol := newVolume("id-1", "data")
			require.NoError(t, s.CreateVolume(vol))
			assert.False(t, vol.CreatedAt.Before(before), "CreatedAt should be stamped on insert")
			assert.Equal(t, types.VolumeStateCreated, vol.State)

			byName, err := s.GetVolumeByName("data")
			require.NoError(t, err)
			assert.Equal(t, "id-1", byName.ID)
			assert.Equal(t, `{"env":"prod"}`, byName.Labels)
			assert.Empty(t, byName.Options)
			assert.True(t, vol.CreatedAt.Equal(byName.CreatedAt))

			byID, err := s.GetVolume("id-1")
			require.NoError(t, err)
			assert.Equal(t, "data", byID.Name)
		})
	}
}

func TestStore_DuplicateName(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			require.NoError(t, s.CreateVolume(newVolume("id-1", "data")))
			err := s.CreateVolume(newVolume("id-2", "data"))
			assert.ErrorIs(t, err, ErrAlreadyExists)

			// The original record is untouched
			vol, err := s.GetVolumeByName("data")
			require.NoError(t, err)
			assert.Equal(t, "id-1", vol.ID)

			_, err = s.GetVolume("id-2")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ConcurrentCreateSameName(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			const attempts = 8
			var wg sync.WaitGroup
			errs := make(chan error, attempts)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs <- s.CreateVolume(newVolume("id-"+string(rune('a'+i)), "shared"))
				}(i)
			}
			wg.Wait()
			close(errs)

			wins := 0
			for err := range errs {
				if err == nil {
					wins++
				} else {
					assert.ErrorIs(t, err, ErrAlreadyExists)
				}
			}
			assert.Equal(t, 1, wins)

			volumes, err := s.ListVolumes()
			require.NoError(t, err)
			assert.Len(t, volumes, 1)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			_, err := s.GetVolumeByName("missing")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetVolume("missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteVolume("missing"), ErrNotFound)
			assert.ErrorIs(t, s.MarkVolumeRemoving("missing"), ErrNotFound)
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			volumes, err := s.ListVolumes()
			require.NoError(t, err)
			assert.Empty(t, volumes)

			require.NoError(t, s.CreateVolume(newVolume("id-1", "one")))
			require.NoError(t, s.CreateVolume(newVolume("id-2", "two")))

			volumes, err = s.ListVolumes()
			require.NoError(t, err)
			assert.Len(t, volumes, 2)

			require.NoError(t, s.DeleteVolume("id-1"))
			_, err = s.GetVolumeByName("one")
			assert.ErrorIs(t, err, ErrNotFound)

			// The name is free again
			require.NoError(t, s.CreateVolume(newVolume("id-3", "one")))
		})
	}
}

func TestStore_MarkVolumeRemoving(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			require.NoError(t, s.CreateVolume(newVolume("id-1", "data")))
			require.NoError(t, s.MarkVolumeRemoving("id-1"))

			vol, err := s.GetVolumeByName("data")
			require.NoError(t, err)
			assert.Equal(t, types.VolumeStateRemoving, vol.State)
			assert.Equal(t, "/var/lib/vordr/volumes/data", vol.Mountpoint)
		})
	}
}

func TestBoltStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), DefaultDBFile)

	s, err := NewBoltStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.CreateVolume(newVolume("id-1", "data")))
	require.NoError(t, s.Close())

	reopened, err := NewBoltStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	vol, err := reopened.GetVolumeByName("data")
	require.NoError(t, err)
	assert.Equal(t, "id-1", vol.ID)

	// Uniqueness holds across reopen
	assert.ErrorIs(t, reopened.CreateVolume(newVolume("id-2", "data")), ErrAlreadyExists)
}
