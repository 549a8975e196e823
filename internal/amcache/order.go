package amcache

import (
	"sort"

	"github.com/ilexum-group/amcache/pkg/models"
)

// Order returns a new slice sorted most recent first. Entries without a
// first-seen time go last. Ties keep their input order.
func Order(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FirstSeen.Compare(out[j].FirstSeen) > 0
	})
	return out
}
