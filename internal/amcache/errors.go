package amcache

import "errors"

var (
	// ErrSourceUnavailable means the hive could not be opened; the run is aborted.
	ErrSourceUnavailable = errors.New("amcache: source unavailable")

	// ErrChildUnreadable marks a record whose values could not be opened.
	// It is logged and the record skipped.
	ErrChildUnreadable = errors.New("amcache: record unreadable")

	// ErrConcurrentRun is returned by Analyzer.Start while a run is in flight.
	ErrConcurrentRun = errors.New("amcache: extraction already in progress")
)
