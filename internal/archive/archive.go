// Package archive stores full transcripts of completed tasks in LevelDB.
// The memory aggregate stays the compact live state; the archive is where
// the complete per-task record (plan, every result, every verdict) goes,
// so history survives without growing the state file.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/cwhuang/stride/internal/types"
)

// LevelDB key scheme — "|" as separator:
//
//	t|<task_id>           → TaskReport JSON (primary record)
//	c|<rfc3339>|<task_id> → task_id         (chronological index)
const (
	prefixTask  = "t|"
	prefixChron = "c|"
)

// Archive is a LevelDB-backed transcript store. LevelDB is single-writer;
// one Archive owns the directory for the process lifetime.
type Archive struct {
	db *leveldb.DB
}

// Open opens (or creates) the archive database at dir.
func Open(dir string) (*Archive, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: open leveldb at %s: %w", dir, err)
	}
	return &Archive{db: db}, nil
}

// Put stores one completed task's report. Safe on nil receiver — an agent
// configured without an archive simply keeps nothing.
func (a *Archive) Put(report *types.TaskReport) error {
	if a == nil || a.db == nil {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("archive: marshal report: %w", err)
	}

	batch := new(leveldb.Batch)
	batch.Put([]byte(prefixTask+report.Plan.TaskID), raw)
	chronKey := fmt.Sprintf("%s%s|%s", prefixChron,
		report.Timestamp.UTC().Format(time.RFC3339Nano), report.Plan.TaskID)
	batch.Put([]byte(chronKey), []byte(report.Plan.TaskID))

	if err := a.db.Write(batch, nil); err != nil {
		return fmt.Errorf("archive: write report: %w", err)
	}
	slog.Debug("archived task transcript", "task_id", report.Plan.TaskID)
	return nil
}

// Get returns the archived report for taskID, or (nil, nil) when absent.
func (a *Archive) Get(taskID string) (*types.TaskReport, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	raw, err := a.db.Get([]byte(prefixTask+taskID), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get %s: %w", taskID, err)
	}
	var report types.TaskReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("archive: decode %s: %w", taskID, err)
	}
	return &report, nil
}

// Recent returns up to n archived reports, newest first.
func (a *Archive) Recent(n int) ([]*types.TaskReport, error) {
	if a == nil || a.db == nil || n <= 0 {
		return nil, nil
	}
	iter := a.db.NewIterator(util.BytesPrefix([]byte(prefixChron)), nil)
	defer iter.Release()

	var reports []*types.TaskReport
	for ok := iter.Last(); ok && len(reports) < n; ok = iter.Prev() {
		report, err := a.Get(string(iter.Value()))
		if err != nil {
			return nil, err
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("archive: iterate: %w", err)
	}
	return reports, nil
}

// Close closes the database. Safe on nil.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
