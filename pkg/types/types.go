package types

import (
	"time"
)

const (
	// DefaultVolumeDriver is the driver tag used when none is given
	DefaultVolumeDriver = "local"

	// VolumeScopeLocal is the only scope volumes can have
	VolumeScopeLocal = "local"
)

// VolumeState tracks where a volume record is in its lifecycle
type VolumeState string

const (
	VolumeStateCreated VolumeState = "created"
	// VolumeStateRemoving marks a record whose directory removal has started.
	// If the record is still around, the removal did not finish.
	VolumeStateRemoving VolumeState = "removing"
)

// Volume is the durable record of a directory-backed volume
type Volume struct {
	ID         string
	Name       string
	Driver     string // free-form tag, "local" by default
	Mountpoint string // canonical absolute path under the volumes root
	Options    string // JSON object text, empty when none were given
	Labels     string // JSON object text, empty when none were given
	State      VolumeState
	CreatedAt  time.Time // assigned by the store on insert
}

// VolumeInfo is the structured inspect view of a volume
type VolumeInfo struct {
	Name       string            `json:"Name"`
	Driver     string            `json:"Driver"`
	Mountpoint string            `json:"Mountpoint"`
	Labels     map[string]string `json:"Labels"`
	Options    map[string]string `json:"Options"`
	CreatedAt  time.Time         `json:"CreatedAt"`
	Scope      string            `json:"Scope"`
	State      VolumeState       `json:"State"`
}
