package amcache

import (
	"strings"

	"github.com/ilexum-group/amcache/pkg/models"
)

// Search returns the entries whose SHA1 or path contains needle, ignoring case,
// in input order. An empty needle returns a copy of all entries. The input is
// never modified.
func Search(entries []models.Entry, needle string) []models.Entry {
	if needle == "" {
		out := make([]models.Entry, len(entries))
		copy(out, entries)
		return out
	}

	needle = fold(needle)
	out := make([]models.Entry, 0)
	for _, e := range entries {
		if strings.Contains(fold(e.SHA1), needle) || strings.Contains(fold(e.Path), needle) {
			out = append(out, e)
		}
	}
	return out
}
