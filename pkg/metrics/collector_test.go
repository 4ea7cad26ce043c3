package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Collect(t *testing.T) {
	store := storage.NewMemStore()
	require.NoError(t, store.CreateVolume(&types.Volume{ID: "1", Name: "a"}))
	require.NoError(t, store.CreateVolume(&types.Volume{ID: "2", Name: "b"}))
	require.NoError(t, store.CreateVolume(&types.Volume{ID: "3", Name: "c"}))
	require.NoError(t, store.MarkVolumeRemoving("3"))

	require.NoError(t, NewCollector(store).Collect())

	assert.Equal(t, 2.0, testutil.ToFloat64(VolumesTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(VolumesTotal.WithLabelValues("removing")))

	// Gauges drop back to zero once records are gone
	require.NoError(t, store.DeleteVolume("3"))
	require.NoError(t, NewCollector(store).Collect())
	assert.Equal(t, 0.0, testutil.ToFloat64(VolumesTotal.WithLabelValues("removing")))
}

func TestWriteTextfile(t *testing.T) {
	VolumeOperationsTotal.WithLabelValues("create", "success").Inc()

	path := filepath.Join(t.TempDir(), "vordr.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vordr_volume_operations_total")
}
