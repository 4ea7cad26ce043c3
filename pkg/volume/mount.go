package volume

import (
	"fmt"
	"path/filepath"

	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cuemby/vordr/pkg/types"
	"github.com/cuemby/vordr/pkg/validation"
)

// MountSpec builds the OCI bind mount that exposes a volume at target inside
// a container. The mountpoint goes through the same containment checks as
// removal before it is handed out.
func (m *Manager) MountSpec(name, target string, readOnly bool) (specs.Mount, error) {
	if err := m.validateName(name); err != nil {
		return specs.Mount{}, err
	}

	if !filepath.IsAbs(target) {
		return specs.Mount{}, fmt.Errorf("%w: mount target must be absolute: %s", validation.ErrInvalidPath, target)
	}
	if err := validation.RejectTraversalToken(target); err != nil {
		return specs.Mount{}, err
	}

	vol, err := m.store.GetVolumeByName(name)
	if err != nil {
		return specs.Mount{}, err
	}
	if vol.State != types.VolumeStateCreated {
		return specs.Mount{}, fmt.Errorf("volume %s is %s", name, vol.State)
	}

	source, err := m.driver.Mount(vol.Mountpoint)
	if err != nil {
		m.recordValidationFailure(err)
		return specs.Mount{}, fmt.Errorf("failed to mount volume %s: %w", name, err)
	}

	mount := specs.Mount{
		Source:      source,
		Destination: target,
		Type:        "bind",
		Options:     []string{"rbind"},
	}
	if readOnly {
		mount.Options = append(mount.Options, "ro")
	} else {
		mount.Options = append(mount.Options, "rw")
	}
	return mount, nil
}
