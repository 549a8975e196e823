package amcache

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ilexum-group/amcache/internal/hive"
	"github.com/ilexum-group/amcache/internal/utils"
	"github.com/ilexum-group/amcache/pkg/models"
)

// RunResult is delivered once per started run.
type RunResult struct {
	// Snapshot is the newly published result set, nil when Err is set.
	Snapshot *models.ResultSet
	Err      error
}

// Analyzer runs at most one extraction at a time in the background and
// publishes each successful result as an immutable snapshot.
//
// Readers call Snapshot at any time; they get either the previous or the new
// result set, never a partial one.
type Analyzer struct {
	opener    hive.Opener
	source    string
	roots     []string
	extractor *Extractor

	running atomic.Bool
	current atomic.Pointer[models.ResultSet]
}

// NewAnalyzer wires an opener to an extractor. Nil extractor and empty roots
// select the defaults. A nil opener is rejected with ErrSourceUnavailable.
func NewAnalyzer(opener hive.Opener, extractor *Extractor, roots []string) (*Analyzer, error) {
	if opener == nil {
		return nil, fmt.Errorf("%w: no hive opener", ErrSourceUnavailable)
	}
	if extractor == nil {
		extractor = NewExtractor()
	}
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	return &Analyzer{
		opener:    opener,
		source:    opener.Path(),
		roots:     append([]string(nil), roots...),
		extractor: extractor,
	}, nil
}

// Start launches a run and returns immediately. The returned channel receives
// exactly one RunResult. While a run is in flight Start returns
// ErrConcurrentRun and changes nothing. A run cannot be cancelled once started.
func (a *Analyzer) Start(onProgress ProgressFunc) (<-chan RunResult, error) {
	if !a.running.CompareAndSwap(false, true) {
		utils.LogInfo("Extraction already in progress, request rejected", map[string]string{"source": a.source})
		return nil, ErrConcurrentRun
	}

	done := make(chan RunResult, 1)
	go func() {
		rs, err := a.run(onProgress)
		if err == nil {
			a.current.Store(rs)
		}
		a.running.Store(false)
		done <- RunResult{Snapshot: rs, Err: err}
		close(done)
	}()
	return done, nil
}

// Run starts a run and waits for it.
func (a *Analyzer) Run(onProgress ProgressFunc) (*models.ResultSet, error) {
	done, err := a.Start(onProgress)
	if err != nil {
		return nil, err
	}
	res := <-done
	return res.Snapshot, res.Err
}

// Snapshot returns the last published result set, or nil before the first
// successful run.
func (a *Analyzer) Snapshot() *models.ResultSet {
	return a.current.Load()
}

// Running reports whether a run is in flight.
func (a *Analyzer) Running() bool {
	return a.running.Load()
}

func (a *Analyzer) run(onProgress ProgressFunc) (rs *models.ResultSet, err error) {
	defer func() {
		if p := recover(); p != nil {
			rs = nil
			err = fmt.Errorf("extraction of %s failed: %v", a.source, p)
			utils.LogError("Extraction aborted", map[string]string{"source": a.source, "error": err.Error()})
		}
	}()

	started := time.Now()
	utils.LogInfo("Opening hive", map[string]string{"source": a.source})

	reader, err := a.opener.Open()
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, a.source, err)
		utils.LogError("Cannot open hive", map[string]string{"source": a.source, "error": err.Error()})
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			utils.LogDebug("Failed to close hive", map[string]string{"error": cerr.Error()})
		}
	}()

	entries, stats, err := a.extractor.Extract(reader, a.roots, onProgress)
	if err != nil {
		return nil, err
	}

	rs = models.NewResultSet(utils.GenerateRandomID(), a.source, Order(entries), stats)
	utils.LogInfo("Result set published", map[string]string{
		"run_id":   rs.ID,
		"entries":  strconv.Itoa(rs.Len()),
		"duration": time.Since(started).String(),
	})
	return rs, nil
}
