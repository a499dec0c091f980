package taxonomy

import "strings"

// Normalize maps raw catalog genres onto the taxonomy. Unmapped values are
// dropped; the result is deduplicated and keeps first-occurrence order.
func (t *Tables) Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, g := range raw {
		mapped, ok := t.genreMap[strings.TrimSpace(g)]
		if !ok || seen[mapped] {
			continue
		}
		seen[mapped] = true
		out = append(out, mapped)
	}
	return out
}

// ScreenGenreNames turns TMDB numeric genre ids into their names. Unknown ids
// are skipped. The names still need Normalize.
func (t *Tables) ScreenGenreNames(ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := t.screenGenreIDs[id]; ok {
			out = append(out, name)
		}
	}
	return out
}
