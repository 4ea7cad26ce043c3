package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/vordr/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketVolumes     = []byte("volumes")      // id -> record
	bucketVolumeNames = []byte("volume_names") // name -> id
)

// DefaultDBFile is the database file name inside the data directory
const DefaultDBFile = "vordr.db"

// openTimeout bounds how long Open waits for another process holding the file lock
const openTimeout = 5 * time.Second

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltStore opens (or creates) the database at dbPath
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketVolumes, bucketVolumeNames} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// CreateVolume inserts the record and its name index entry in one transaction
func (s *BoltStore) CreateVolume(volume *types.Volume) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(bucketVolumeNames)
		if names.Get([]byte(volume.Name)) != nil {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, volume.Name)
		}

		b := tx.Bucket(bucketVolumes)
		if b.Get([]byte(volume.ID)) != nil {
			return fmt.Errorf("%w: duplicate id %s", ErrAlreadyExists, volume.ID)
		}

		volume.CreatedAt = s.now().UTC()
		if volume.State == "" {
			volume.State = types.VolumeStateCreated
		}

		data, err := json.Marshal(volume)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(volume.ID), data); err != nil {
			return err
		}
		return names.Put([]byte(volume.Name), []byte(volume.ID))
	})
}

func (s *BoltStore) GetVolume(id string) (*types.Volume, error) {
	var volume types.Volume
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVolumes)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &volume)
	})
	if err != nil {
		return nil, err
	}
	return &volume, nil
}

func (s *BoltStore) GetVolumeByName(name string) (*types.Volume, error) {
	var volume types.Volume
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketVolumeNames).Get([]byte(name))
		if id == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		data := tx.Bucket(bucketVolumes).Get(id)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return json.Unmarshal(data, &volume)
	})
	if err != nil {
		return nil, err
	}
	return &volume, nil
}

func (s *BoltStore) ListVolumes() ([]*types.Volume, error) {
	var volumes []*types.Volume
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVolumes)
		return b.ForEach(func(k, v []byte) error {
			var volume types.Volume
			if err := json.Unmarshal(v, &volume); err != nil {
				return err
			}
			volumes = append(volumes, &volume)
			return nil
		})
	})
	return volumes, err
}

func (s *BoltStore) MarkVolumeRemoving(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVolumes)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		var volume types.Volume
		if err := json.Unmarshal(data, &volume); err != nil {
			return err
		}
		volume.State = types.VolumeStateRemoving

		updated, err := json.Marshal(&volume)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
}

// DeleteVolume removes the record and its name index entry
func (s *BoltStore) DeleteVolume(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVolumes)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		var volume types.Volume
		if err := json.Unmarshal(data, &volume); err != nil {
			return err
		}

		names := tx.Bucket(bucketVolumeNames)
		if owner := names.Get([]byte(volume.Name)); owner != nil && string(owner) == id {
			if err := names.Delete([]byte(volume.Name)); err != nil {
				return err
			}
		}
		return b.Delete([]byte(id))
	})
}
