// Package amcache extracts, orders and queries execution-history records from
// an Amcache hive.
//
// Records live under one key per schema generation. Each generation names the
// same logical fields differently, so extraction goes through a Resolver that
// tries a fixed list of value names per field. A record that yields neither a
// hash nor a path is dropped. Ordering, searching and export operate on the
// frozen result of a run and never modify it.
package amcache

import (
	"fmt"
	"strconv"

	"github.com/ilexum-group/amcache/internal/hive"
	"github.com/ilexum-group/amcache/internal/utils"
	"github.com/ilexum-group/amcache/pkg/models"
)

// ProgressFunc receives the cumulative number of retained entries.
// It is called from the extracting goroutine.
type ProgressFunc func(count int)

// DefaultProgressInterval is the number of retained entries between progress calls.
const DefaultProgressInterval = 100

// DefaultRoots are the record roots of the two Amcache schema generations.
var DefaultRoots = []string{
	`Root\File`,
	`Root\InventoryApplicationFile`,
}

// Extractor walks record roots and builds entries.
type Extractor struct {
	resolver         *Resolver
	classifier       *Classifier
	progressInterval int
}

// ExtractorOption customises an Extractor.
type ExtractorOption func(*Extractor)

// WithResolver replaces the default value-name table.
func WithResolver(r *Resolver) ExtractorOption {
	return func(x *Extractor) { x.resolver = r }
}

// WithClassifier replaces the default deny-list classifier.
func WithClassifier(c *Classifier) ExtractorOption {
	return func(x *Extractor) { x.classifier = c }
}

// WithProgressInterval sets how many retained entries separate progress calls.
// Values below 1 are ignored.
func WithProgressInterval(n int) ExtractorOption {
	return func(x *Extractor) {
		if n > 0 {
			x.progressInterval = n
		}
	}
}

// NewExtractor returns an extractor using DefaultSchema and DefaultDenyList
// unless overridden.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		resolver:         NewResolver(DefaultSchema),
		classifier:       NewClassifier(DefaultDenyList),
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract reads every record under roots, in root order then child order.
// Missing roots and unreadable records are skipped and counted in the stats.
// onProgress may be nil. The hive is only read.
func (x *Extractor) Extract(r hive.Reader, roots []string, onProgress ProgressFunc) ([]models.Entry, models.ExtractionStats, error) {
	var stats models.ExtractionStats
	if r == nil {
		return nil, stats, fmt.Errorf("%w: no hive reader", ErrSourceUnavailable)
	}

	entries := make([]models.Entry, 0)
	lastReported := -1
	report := func(count int) {
		if onProgress != nil && count != lastReported {
			lastReported = count
			onProgress(count)
		}
	}

	for _, rootPath := range roots {
		root, err := r.OpenRoot(rootPath)
		if err != nil {
			stats.RootsMissing = append(stats.RootsMissing, rootPath)
			utils.LogInfo("Record root not present, skipping", map[string]string{"root": rootPath, "error": err.Error()})
			continue
		}

		children, err := root.Children()
		if err != nil {
			stats.RootsMissing = append(stats.RootsMissing, rootPath)
			utils.LogWarn("Record root not enumerable, skipping", map[string]string{"root": rootPath, "error": err.Error()})
			continue
		}
		stats.RootsVisited++

		for _, child := range children {
			values, err := child.Values()
			if err != nil {
				stats.ChildrenSkipped++
				err = fmt.Errorf("%w: %s\\%s: %v", ErrChildUnreadable, rootPath, child.Name(), err)
				utils.LogWarn("Record skipped", map[string]string{"root": rootPath, "error": err.Error()})
				continue
			}

			entry := x.resolver.Resolve(values)
			if !entry.HasForensicValue() {
				stats.Discarded++
				continue
			}
			entry.Notes = x.classifier.Classify(entry.Path)
			entry.Root = rootPath

			entries = append(entries, entry)
			if len(entries)%x.progressInterval == 0 {
				report(len(entries))
			}
		}
	}

	stats.Retained = len(entries)
	report(len(entries))

	utils.LogInfo("Extraction finished", map[string]string{
		"retained":         strconv.Itoa(stats.Retained),
		"discarded":        strconv.Itoa(stats.Discarded),
		"children_skipped": strconv.Itoa(stats.ChildrenSkipped),
		"roots_visited":    strconv.Itoa(stats.RootsVisited),
	})
	return entries, stats, nil
}
