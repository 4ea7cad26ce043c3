package volume

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/vordr/pkg/log"
	"github.com/cuemby/vordr/pkg/metrics"
	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/types"
	"github.com/cuemby/vordr/pkg/validation"
)

var (
	ErrInvalidName       = errors.New("invalid volume name")
	ErrRootUnresolvable  = errors.New("failed to canonicalize volumes directory")
	ErrMountpointEscaped = errors.New("volume mountpoint escapes volumes directory")

	// Re-exported so callers only need this package
	ErrNotFound      = storage.ErrNotFound
	ErrAlreadyExists = storage.ErrAlreadyExists
)

// Config holds the handles a Manager operates on
type Config struct {
	// Root is the data root; volumes live in Root/volumes
	Root  string
	Store storage.Store
	// Logger defaults to the global logger with component=volume
	Logger *zerolog.Logger
}

// CreateRequest carries already-parsed create arguments
type CreateRequest struct {
	Name    string
	Driver  string   // defaults to "local"
	Labels  []string // key=value tokens
	Options []string // key=value tokens
}

// Manager owns the volume lifecycle. It is the only writer of volume records.
type Manager struct {
	store  storage.Store
	driver *LocalDriver
	logger zerolog.Logger
}

// NewManager creates a new volume manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("data root is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("record store is required")
	}

	logger := log.WithComponent("volume")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Manager{
		store:  cfg.Store,
		driver: NewLocalDriver(cfg.Root),
		logger: logger,
	}, nil
}

// VolumesRoot returns the directory holding the volume mountpoints
func (m *Manager) VolumesRoot() string {
	return m.driver.BasePath()
}

// Create validates the name, provisions the mountpoint and inserts the
// record. It returns the created record.
func (m *Manager) Create(req CreateRequest) (vol *types.Volume, err error) {
	timer := metrics.NewTimer()
	defer func() { metrics.RecordOperation("create", timer, err) }()

	if err := m.validateName(req.Name); err != nil {
		return nil, err
	}
	logger := m.logger.With().Str("volume", req.Name).Logger()

	driver := req.Driver
	if driver == "" {
		driver = types.DefaultVolumeDriver
	}

	// Fail before touching disk if the name is taken. The store's unique
	// insert below is still the real serialization point.
	if _, err := m.store.GetVolumeByName(req.Name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, req.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up volume: %w", err)
	}

	mountpoint, err := m.driver.Create(req.Name)
	if err != nil {
		if errors.Is(err, ErrMountpointEscaped) {
			metrics.ValidationFailuresTotal.WithLabelValues("escaped").Inc()
			logger.Error().Err(err).Msg("Mountpoint escaped volumes root; directory left on disk")
		}
		return nil, err
	}
	logger.Debug().Str("mountpoint", mountpoint).Msg("Mountpoint created and contained")

	labels, err := encodeKeyValues(req.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize labels: %w", err)
	}
	options, err := encodeKeyValues(req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize options: %w", err)
	}

	vol = &types.Volume{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Driver:     driver,
		Mountpoint: mountpoint,
		Options:    options,
		Labels:     labels,
		State:      types.VolumeStateCreated,
	}

	if err := m.store.CreateVolume(vol); err != nil {
		// The directory was created exclusively by this call and is still
		// empty, so it can go without touching anything else.
		if discardErr := m.driver.Discard(mountpoint); discardErr != nil {
			logger.Error().Err(discardErr).Str("mountpoint", mountpoint).Msg("Failed to discard mountpoint after insert failure")
		}
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to insert volume record: %w", err)
	}

	logger.Info().Str("id", vol.ID).Str("mountpoint", mountpoint).Msg("Volume created")
	return vol, nil
}

// Remove deletes a volume's directory tree and then its record.
//
// The record is flipped to "removing" before the directory is touched. If
// the record delete fails afterwards, the record stays in that state and a
// second Remove completes the job.
func (m *Manager) Remove(name string) (vol *types.Volume, err error) {
	timer := metrics.NewTimer()
	defer func() { metrics.RecordOperation("remove", timer, err) }()

	if err := m.validateName(name); err != nil {
		return nil, err
	}
	logger := m.logger.With().Str("volume", name).Logger()

	vol, err = m.store.GetVolumeByName(name)
	if err != nil {
		return nil, err
	}

	exists, err := m.driver.Verify(vol.Mountpoint)
	if err != nil {
		m.recordValidationFailure(err)
		logger.Warn().Err(err).Str("mountpoint", vol.Mountpoint).Msg("Refusing to remove volume")
		return nil, err
	}

	if vol.State != types.VolumeStateRemoving {
		if err := m.store.MarkVolumeRemoving(vol.ID); err != nil {
			return nil, fmt.Errorf("failed to mark volume removing: %w", err)
		}
		vol.State = types.VolumeStateRemoving
	}

	if exists {
		if err := m.driver.RemoveTree(vol.Mountpoint); err != nil {
			m.recordValidationFailure(err)
			logger.Error().Err(err).Msg("Volume directory removal failed; record left in removing state")
			return nil, err
		}
		logger.Debug().Str("mountpoint", vol.Mountpoint).Msg("Mountpoint removed")
	} else {
		logger.Debug().Str("mountpoint", vol.Mountpoint).Msg("Mountpoint already absent")
	}

	if err := m.store.DeleteVolume(vol.ID); err != nil {
		logger.Error().Err(err).Msg("Directory removed but record delete failed; record left in removing state")
		return nil, fmt.Errorf("failed to delete volume record: %w", err)
	}

	logger.Info().Str("id", vol.ID).Msg("Volume removed")
	return vol, nil
}

// Inspect returns the structured view of one volume. Stored labels or
// options that fail to parse are shown as empty and logged.
func (m *Manager) Inspect(name string) (info *types.VolumeInfo, err error) {
	timer := metrics.NewTimer()
	defer func() { metrics.RecordOperation("inspect", timer, err) }()

	if err := m.validateName(name); err != nil {
		return nil, err
	}

	vol, err := m.store.GetVolumeByName(name)
	if err != nil {
		return nil, err
	}

	return &types.VolumeInfo{
		Name:       vol.Name,
		Driver:     vol.Driver,
		Mountpoint: vol.Mountpoint,
		Labels:     m.decodeStored(vol.Name, "labels", vol.Labels),
		Options:    m.decodeStored(vol.Name, "options", vol.Options),
		CreatedAt:  vol.CreatedAt,
		Scope:      types.VolumeScopeLocal,
		State:      vol.State,
	}, nil
}

// List returns all records matching filters, sorted by name
func (m *Manager) List(filters Filters) (volumes []*types.Volume, err error) {
	timer := metrics.NewTimer()
	defer func() { metrics.RecordOperation("list", timer, err) }()

	all, err := m.store.ListVolumes()
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}

	volumes = make([]*types.Volume, 0, len(all))
	for _, vol := range all {
		if filters.Match(vol) {
			volumes = append(volumes, vol)
		}
	}

	sort.Slice(volumes, func(i, j int) bool {
		return volumes[i].Name < volumes[j].Name
	})
	return volumes, nil
}

// Prune is a placeholder. Deciding which volumes are unused needs reference
// counting against their consumers, which does not exist yet, so nothing is
// ever removed.
func (m *Manager) Prune() ([]string, error) {
	m.logger.Debug().Msg("Volume pruning is not implemented")
	return nil, nil
}

func (m *Manager) validateName(name string) error {
	if err := validation.ValidateIdentifier(name); err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues("identifier").Inc()
		return fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	return nil
}

func (m *Manager) recordValidationFailure(err error) {
	var reason string
	switch {
	case errors.Is(err, validation.ErrTraversal):
		reason = "traversal"
	case errors.Is(err, validation.ErrSymlinkNotAllowed):
		reason = "symlink"
	case errors.Is(err, ErrMountpointEscaped):
		reason = "escaped"
	case errors.Is(err, validation.ErrUnresolvablePath):
		reason = "unresolvable"
	default:
		return
	}
	metrics.ValidationFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Manager) decodeStored(name, field, raw string) map[string]string {
	values := map[string]string{}
	if raw == "" {
		return values
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		m.logger.Warn().Err(err).Str("volume", name).Str("field", field).
			Msg("Stored value is not a valid JSON object; showing it as empty")
		return map[string]string{}
	}
	if values == nil {
		// stored "null"
		return map[string]string{}
	}
	return values
}

// ParseKeyValues turns key=value tokens into a map. Tokens without '=' are
// dropped and later duplicates win.
func ParseKeyValues(tokens []string) map[string]string {
	values := make(map[string]string, len(tokens))
	for _, token := range tokens {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		values[key] = value
	}
	return values
}

// encodeKeyValues returns "" when no tokens were given at all
func encodeKeyValues(tokens []string) (string, error) {
	if len(tokens) == 0 {
		return "", nil
	}
	data, err := json.Marshal(ParseKeyValues(tokens))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
