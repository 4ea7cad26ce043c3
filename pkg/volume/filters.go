package volume

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cuemby/vordr/pkg/types"
)

// Filters narrows List results. All set conditions must hold.
type Filters struct {
	Names   []string          // any of
	Drivers []string          // any of
	Labels  map[string]string // key -> value; "" matches any value
}

// ParseFilters parses --filter tokens of the form name=NAME, driver=DRIVER,
// label=KEY or label=KEY=VALUE
func ParseFilters(tokens []string) (Filters, error) {
	var f Filters
	for _, token := range tokens {
		kind, value, ok := strings.Cut(token, "=")
		if !ok || value == "" {
			return Filters{}, fmt.Errorf("invalid filter %q: expected key=value", token)
		}

		switch kind {
		case "name":
			f.Names = append(f.Names, value)
		case "driver":
			f.Drivers = append(f.Drivers, value)
		case "label":
			if f.Labels == nil {
				f.Labels = make(map[string]string)
			}
			key, labelValue, _ := strings.Cut(value, "=")
			f.Labels[key] = labelValue
		default:
			return Filters{}, fmt.Errorf("invalid filter %q: unknown key %q", token, kind)
		}
	}
	return f, nil
}

// Match reports whether vol satisfies every condition
func (f Filters) Match(vol *types.Volume) bool {
	if len(f.Names) > 0 && !contains(f.Names, vol.Name) {
		return false
	}
	if len(f.Drivers) > 0 && !contains(f.Drivers, vol.Driver) {
		return false
	}
	if len(f.Labels) == 0 {
		return true
	}

	labels := map[string]string{}
	if vol.Labels != "" {
		if err := json.Unmarshal([]byte(vol.Labels), &labels); err != nil {
			// Unparseable labels match nothing, even if some keys decoded
			return false
		}
	}
	for key, want := range f.Labels {
		got, ok := labels[key]
		if !ok || (want != "" && got != want) {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
