package storage

import (
	"errors"

	"github.com/cuemby/vordr/pkg/types"
)

var (
	ErrNotFound      = errors.New("volume not found")
	ErrAlreadyExists = errors.New("volume already exists")
)

// Store defines the interface for volume record storage.
// Implementations must make CreateVolume atomic with respect to the name:
// two concurrent inserts of the same name never both succeed.
type Store interface {
	// CreateVolume inserts a new record, stamps CreatedAt and fails with
	// ErrAlreadyExists if the name is taken
	CreateVolume(volume *types.Volume) error
	GetVolume(id string) (*types.Volume, error)
	GetVolumeByName(name string) (*types.Volume, error)
	ListVolumes() ([]*types.Volume, error)
	// MarkVolumeRemoving flips the record to VolumeStateRemoving
	MarkVolumeRemoving(id string) error
	DeleteVolume(id string) error

	// Utility
	Close() error
}
