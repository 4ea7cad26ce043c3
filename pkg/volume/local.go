package volume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/vordr/pkg/validation"
)

const (
	// VolumesDir is the directory under the data root holding one
	// subdirectory per volume
	VolumesDir = "volumes"
)

// LocalDriver realises volumes as directories under <root>/volumes
type LocalDriver struct {
	basePath string
}

// NewLocalDriver creates a local driver rooted at dataRoot/volumes.
// Nothing is created on disk until the first Create.
func NewLocalDriver(dataRoot string) *LocalDriver {
	return &LocalDriver{
		basePath: filepath.Join(dataRoot, VolumesDir),
	}
}

// BasePath returns the volumes root as configured (not canonicalized)
func (d *LocalDriver) BasePath() string {
	return d.basePath
}

// canonicalRoot creates the volumes root if needed and resolves it
func (d *LocalDriver) canonicalRoot() (string, error) {
	if err := os.MkdirAll(d.basePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create volumes directory: %w", err)
	}

	root, err := validation.Canonicalize(d.basePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRootUnresolvable, err)
	}
	return root, nil
}

// Create makes the mountpoint for an already validated name and returns its
// canonical path. The directory is created exclusively: an existing entry
// of any kind is reported as ErrAlreadyExists and left alone.
//
// If the containment check fails the directory stays on disk and
// ErrMountpointEscaped is returned.
func (d *LocalDriver) Create(name string) (string, error) {
	root, err := d.canonicalRoot()
	if err != nil {
		return "", err
	}

	// name is validated, so joining cannot traverse
	candidate := filepath.Join(root, name)

	if err := os.Mkdir(candidate, 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: mountpoint %s is already present", ErrAlreadyExists, candidate)
		}
		return "", fmt.Errorf("failed to create volume mountpoint: %w", err)
	}

	mountpoint, err := validation.Canonicalize(candidate)
	if err != nil {
		return "", err
	}

	if !validation.IsWithin(mountpoint, root) {
		return "", fmt.Errorf("%w: %w: %s", ErrMountpointEscaped, validation.ErrEscaped, mountpoint)
	}

	return validation.PathToString(mountpoint)
}

// Discard removes a mountpoint this process created with Create and never
// populated. It is not recursive, so a directory that gained content is kept.
func (d *LocalDriver) Discard(mountpoint string) error {
	if err := validation.CheckNotSymlink(mountpoint); err != nil {
		return err
	}
	return os.Remove(mountpoint)
}

// Verify runs the containment policy on a stored mountpoint: lexical
// traversal, symlink, then canonical containment in the volumes root.
// It reports whether the mountpoint currently exists.
func (d *LocalDriver) Verify(mountpoint string) (bool, error) {
	if err := validation.RejectTraversalToken(mountpoint); err != nil {
		return false, err
	}

	if _, err := os.Lstat(mountpoint); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s: %w", validation.ErrUnresolvablePath, mountpoint, err)
	}

	if err := validation.CheckNotSymlink(mountpoint); err != nil {
		return true, err
	}

	if _, err := os.Lstat(d.basePath); err != nil {
		if os.IsNotExist(err) {
			// An existing mountpoint cannot be inside a missing root
			return true, fmt.Errorf("%w: volumes root %s does not exist", ErrMountpointEscaped, d.basePath)
		}
		return true, fmt.Errorf("%w: %w", ErrRootUnresolvable, err)
	}

	if err := validation.VerifyContained(mountpoint, d.basePath); err != nil {
		if errors.Is(err, validation.ErrEscaped) {
			return true, fmt.Errorf("%w: %w", ErrMountpointEscaped, err)
		}
		return true, err
	}

	if err := checkCanonical(mountpoint); err != nil {
		return true, err
	}

	return true, nil
}

// checkCanonical requires the stored mountpoint to still resolve to itself.
// Containment alone passes when the volumes root itself has been swapped for
// a symlink, because both sides then resolve into the link target.
func checkCanonical(mountpoint string) error {
	resolved, err := validation.Canonicalize(mountpoint)
	if err != nil {
		return err
	}
	if resolved != mountpoint {
		return fmt.Errorf("%w: %s now resolves to %s", ErrMountpointEscaped, mountpoint, resolved)
	}
	return nil
}

// RemoveTree recursively deletes a mountpoint that passed Verify.
// The symlink and canonical-path checks are repeated as the last steps
// before os.RemoveAll.
func (d *LocalDriver) RemoveTree(mountpoint string) error {
	if err := validation.CheckNotSymlink(mountpoint); err != nil {
		return err
	}
	if err := checkCanonical(mountpoint); err != nil {
		return err
	}

	if err := os.RemoveAll(mountpoint); err != nil {
		return fmt.Errorf("failed to remove volume mountpoint: %w", err)
	}
	return nil
}

// Mount returns the host path for bind mounting a volume into a container
func (d *LocalDriver) Mount(mountpoint string) (string, error) {
	exists, err := d.Verify(mountpoint)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("volume directory does not exist: %s", mountpoint)
	}
	return mountpoint, nil
}
