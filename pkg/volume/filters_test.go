package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/vordr/pkg/types"
)

func TestParseFilters(t *testing.T) {
	f, err := ParseFilters([]string{"name=a", "name=b", "driver=local", "label=env", "label=tier=db"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Names)
	assert.Equal(t, []string{"local"}, f.Drivers)
	assert.Equal(t, map[string]string{"env": "", "tier": "db"}, f.Labels)

	for _, bad := range []string{"name", "name=", "dangling=x", "=x"} {
		_, err := ParseFilters([]string{bad})
		assert.Error(t, err, "filter %q", bad)
	}
}

func TestFilters_Match(t *testing.T) {
	vol := &types.Volume{
		Name:   "data",
		Driver: "local",
		Labels: `{"env":"prod","tier":"db"}`,
	}
	corrupt := &types.Volume{Name: "broken", Driver: "local", Labels: "{"}
	// Decodes env before failing on the non-string value
	mistyped := &types.Volume{Name: "mistyped", Driver: "local", Labels: `{"env":"prod","replicas":3}`}

	tests := []struct {
		name    string
		filters Filters
		vol     *types.Volume
		want    bool
	}{
		{name: "empty filters", filters: Filters{}, vol: vol, want: true},
		{name: "name any-of", filters: Filters{Names: []string{"x", "data"}}, vol: vol, want: true},
		{name: "name miss", filters: Filters{Names: []string{"x"}}, vol: vol, want: false},
		{name: "driver miss", filters: Filters{Drivers: []string{"nfs"}}, vol: vol, want: false},
		{name: "label key", filters: Filters{Labels: map[string]string{"env": ""}}, vol: vol, want: true},
		{name: "label value", filters: Filters{Labels: map[string]string{"env": "prod"}}, vol: vol, want: true},
		{name: "label value miss", filters: Filters{Labels: map[string]string{"env": "dev"}}, vol: vol, want: false},
		{name: "all labels required", filters: Filters{Labels: map[string]string{"env": "", "zone": ""}}, vol: vol, want: false},
		{name: "corrupt labels", filters: Filters{Labels: map[string]string{"env": ""}}, vol: corrupt, want: false},
		{name: "partially decoded labels", filters: Filters{Labels: map[string]string{"env": "prod"}}, vol: mistyped, want: false},
		{name: "no labels", filters: Filters{Labels: map[string]string{"env": ""}}, vol: &types.Volume{Name: "x"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.Match(tt.vol))
		})
	}
}
