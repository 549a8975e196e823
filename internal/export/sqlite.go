package export

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ilexum-group/amcache/pkg/models"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	source           TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	roots_visited    INTEGER NOT NULL,
	roots_missing    TEXT NOT NULL,
	children_skipped INTEGER NOT NULL,
	discarded        INTEGER NOT NULL,
	retained         INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	seq             INTEGER NOT NULL,
	sha1            TEXT NOT NULL,
	path            TEXT NOT NULL,
	size            INTEGER,
	company         TEXT NOT NULL,
	product         TEXT NOT NULL,
	first_seen      TEXT NOT NULL,
	first_seen_unix INTEGER,
	notes           TEXT NOT NULL,
	root            TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS entries_sha1 ON entries(sha1);
`

const insertEntrySQL = `INSERT INTO entries
	(run_id, seq, sha1, path, size, company, product, first_seen, first_seen_unix, notes, root)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteSQLite appends a result set to the case database at path, creating it
// if needed. Several runs can share one database; entries keep their order in
// the seq column.
func WriteSQLite(path string, rs *models.ResultSet) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return sinkError(err)
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return sinkError(fmt.Errorf("create schema: %w", err))
	}

	tx, err := db.Begin()
	if err != nil {
		return sinkError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.ID, rs.Source, rs.CreatedAt.UTC().Format(time.RFC3339Nano),
		rs.Stats.RootsVisited, strings.Join(rs.Stats.RootsMissing, ","),
		rs.Stats.ChildrenSkipped, rs.Stats.Discarded, rs.Stats.Retained)
	if err != nil {
		return sinkError(fmt.Errorf("insert run: %w", err))
	}

	stmt, err := tx.Prepare(insertEntrySQL)
	if err != nil {
		return sinkError(err)
	}
	defer stmt.Close()

	for i, e := range rs.Entries() {
		var unix sql.NullInt64
		if t, ok := e.FirstSeen.Time(); ok {
			unix = sql.NullInt64{Int64: t.Unix(), Valid: true}
		}
		_, err = stmt.Exec(rs.ID, i, e.SHA1, e.Path, sqliteSize(e.Size), e.Company, e.Product,
			e.FirstSeen.String(), unix, strings.Join(e.Notes, NoteSeparator), e.Root)
		if err != nil {
			return sinkError(fmt.Errorf("insert entry %d: %w", i, err))
		}
	}

	if err = tx.Commit(); err != nil {
		return sinkError(err)
	}
	return nil
}

// sqliteSize stores sizes SQLite cannot hold as a signed 64-bit integer as
// NULL instead of wrapping them negative.
func sqliteSize(size uint64) sql.NullInt64 {
	if size > math.MaxInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(size), Valid: true}
}
