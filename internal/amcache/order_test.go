package amcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ilexum-group/amcache/internal/filetime"
	"github.com/ilexum-group/amcache/pkg/models"
)

func entryAt(id string, ticks uint64) models.Entry {
	return models.Entry{SHA1: id, FirstSeen: filetime.Decode(ticks)}
}

func ids(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.SHA1
	}
	return out
}

func TestOrderMostRecentFirst(t *testing.T) {
	in := []models.Entry{
		entryAt("old", 131000000000000000),
		entryAt("none1", 0),
		entryAt("new", 133000000000000000),
		entryAt("mid", 132000000000000000),
		entryAt("none2", 0),
	}

	out := Order(in)
	assert.Equal(t, []string{"new", "mid", "old", "none1", "none2"}, ids(out))
	// input untouched
	assert.Equal(t, []string{"old", "none1", "new", "mid", "none2"}, ids(in))
}

func TestOrderIsStableForEqualTimes(t *testing.T) {
	in := []models.Entry{
		entryAt("a", 132000000000000000),
		entryAt("b", 0),
		entryAt("c", 132000000000000000),
		entryAt("d", 0),
		entryAt("e", 132000000000000000),
	}
	assert.Equal(t, []string{"a", "c", "e", "b", "d"}, ids(Order(in)))
}

func TestOrderScenario(t *testing.T) {
	entries, _, err := NewExtractor().Extract(scenarioHive(), DefaultRoots, nil)
	assert.NoError(t, err)

	// Put the undated entry first to show ordering moves it
	out := Order([]models.Entry{entries[1], entries[0]})
	assert.Equal(t, "ABC123", out[0].SHA1)
}

func TestOrderEmpty(t *testing.T) {
	assert.Empty(t, Order(nil))
}
