package database

import (
	"fmt"
	"sort"
)

// mergeOptions overlays user supplied options on top of driver defaults and
// renders them as sorted key=value pairs so DSNs are deterministic.
func mergeOptions(defaults, overrides map[string]string) []string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, merged[key]))
	}
	return pairs
}
