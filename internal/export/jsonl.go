package export

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/ilexum-group/amcache/pkg/models"
)

// TimelineEvent is one line of the JSONL timeline.
type TimelineEvent struct {
	Time    string   `json:"time,omitempty"`
	Type    string   `json:"type"`
	SHA1    string   `json:"sha1,omitempty"`
	Path    string   `json:"path,omitempty"`
	Size    uint64   `json:"size_bytes,omitempty"`
	Company string   `json:"company,omitempty"`
	Product string   `json:"product,omitempty"`
	Notes   []string `json:"notes,omitempty"`
	Root    string   `json:"root,omitempty"`
}

// Event types written to the timeline.
const (
	EventProgramSeen    = "program_first_seen"
	EventProgramUndated = "program_recorded"
)

// WriteJSONL writes one event per entry. Entries with a first-seen time get
// an RFC 3339 time; the rest have none.
func WriteJSONL(w io.Writer, entries []models.Entry) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for _, e := range entries {
		ev := TimelineEvent{
			Type:    EventProgramUndated,
			SHA1:    e.SHA1,
			Path:    e.Path,
			Size:    e.Size,
			Company: e.Company,
			Product: e.Product,
			Notes:   e.Notes,
			Root:    e.Root,
		}
		if t, ok := e.FirstSeen.Time(); ok {
			ev.Type = EventProgramSeen
			ev.Time = t.UTC().Format(time.RFC3339)
		}
		if err := enc.Encode(ev); err != nil {
			return sinkError(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return sinkError(err)
	}
	return nil
}
