package search

import (
	"sort"

	"github.com/tkonolige/cpsm/pkg/models"
)

// Rank orders the merged matches by score tuple with the byte-lexicographic
// tiebreak and splits them at limit: the kept prefix is returned to the
// host, while the dropped tail still holds handles the caller must
// release. The merged vector is bounded by workers*limit entries when a
// limit is set, so a full sort stays cheap.
func Rank(matches []models.Match, limit int) (kept, dropped []models.Match) {
	sort.Slice(matches, func(i, j int) bool {
		return (&matches[i]).Less(&matches[j])
	})
	if limit > 0 && len(matches) > limit {
		return matches[:limit], matches[limit:]
	}
	return matches, nil
}
