package metrics

import (
	"github.com/cuemby/vordr/pkg/types"
)

// VolumeLister is the part of the record store the collector needs
type VolumeLister interface {
	ListVolumes() ([]*types.Volume, error)
}

// Collector refreshes inventory gauges from the record store
type Collector struct {
	store VolumeLister
}

// NewCollector creates a new metrics collector
func NewCollector(store VolumeLister) *Collector {
	return &Collector{store: store}
}

// Collect updates VolumesTotal from the current records
func (c *Collector) Collect() error {
	volumes, err := c.store.ListVolumes()
	if err != nil {
		return err
	}

	counts := map[types.VolumeState]int{
		types.VolumeStateCreated:  0,
		types.VolumeStateRemoving: 0,
	}
	for _, volume := range volumes {
		counts[volume.State]++
	}

	for state, count := range counts {
		VolumesTotal.WithLabelValues(string(state)).Set(float64(count))
	}
	return nil
}
