package amcache

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// DenyList is a table of path fragments associated with low-trust execution
// locations, and the note attached when one matches.
type DenyList struct {
	Note      string   `yaml:"note"`
	Fragments []string `yaml:"fragments"`
}

// DefaultDenyList covers temporary, download, world-writable shared and
// machine-wide data directories.
var DefaultDenyList = DenyList{
	Note: "suspicious path (temp/downloads/public)",
	Fragments: []string{
		`\temp\`,
		`\tmp\`,
		`\downloads\`,
		`\appdata\local\temp\`,
		`\users\public\`,
		`\programdata\`,
	},
}

// Below this many fragments a linear scan beats building the automaton.
const ahoMinFragments = 8

// Classifier flags paths that contain a deny-listed fragment.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	note      string
	fragments []string
	matcher   *ahocorasick.Matcher
}

// NewClassifier compiles a deny-list. Empty fragments are ignored.
func NewClassifier(list DenyList) *Classifier {
	fragments := make([]string, 0, len(list.Fragments))
	seen := make(map[string]struct{}, len(list.Fragments))
	for _, f := range list.Fragments {
		f = fold(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		fragments = append(fragments, f)
	}

	note := list.Note
	if note == "" {
		note = DefaultDenyList.Note
	}

	c := &Classifier{note: note, fragments: fragments}
	if len(fragments) >= ahoMinFragments {
		c.matcher = ahocorasick.NewStringMatcher(fragments)
	}
	return c
}

// Classify returns one note when path matches the deny-list, nil otherwise.
func (c *Classifier) Classify(path string) []string {
	if path == "" || len(c.fragments) == 0 {
		return nil
	}
	if c.matches(fold(path)) {
		return []string{c.note}
	}
	return nil
}

func (c *Classifier) matches(folded string) bool {
	if c.matcher != nil {
		return len(c.matcher.MatchThreadSafe([]byte(folded))) > 0
	}
	for _, f := range c.fragments {
		if strings.Contains(folded, f) {
			return true
		}
	}
	return false
}
