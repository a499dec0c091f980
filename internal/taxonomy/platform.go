package taxonomy

import (
	"strings"

	"mediatracker/pkg/models"
)

// Resolve maps a catalog's availability list onto a Platform. The list is
// walked in the order the catalog supplied it and the first entry present in
// the source's synonym table wins. ok is false when nothing matched.
func (t *Tables) Resolve(source Source, providers []string) (p models.Platform, ok bool) {
	table := t.platforms[source]
	if len(table) == 0 {
		return "", false
	}
	for _, name := range providers {
		if mapped, hit := table[strings.TrimSpace(name)]; hit {
			return mapped, true
		}
	}
	return "", false
}
