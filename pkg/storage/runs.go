package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	bolt "go.etcd.io/bbolt"
)

var runsBucket = []byte("runs")

// MaxRuns is the number of task runs kept in the history
const MaxRuns = 200

// TaskRun records a single `task` invocation
type TaskRun struct {
	Task     string        `json:"task"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	ExitCode int           `json:"exit_code"`
	DryRun   bool          `json:"dry_run,omitempty"`
}

func runKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// RecordRun appends run to the history and drops the oldest entries beyond MaxRuns
func (s *Store) RecordRun(ctx context.Context, run TaskRun) error {
	encoded, err := json.Marshal(run)
	if err != nil {
		return err
	}

	err = s.update(ctx, func(tx *bolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		err = bucket.Put(runKey(seq), encoded)
		if err != nil {
			return err
		}

		count := 0
		cursor := bucket.Cursor()
		for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
			count++
		}

		stale := make([][]byte, 0)
		for k, _ := cursor.First(); k != nil && len(stale) < count-MaxRuns; k, _ = cursor.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}

		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return eris.Wrap(err, "failed to record task run")
}

// RecordRuns stores the runs of one `task` invocation in a single transaction
func (s *Store) RecordRuns(ctx context.Context, runs []TaskRun) error {
	return s.BatchUpdate(ctx, func(ctx context.Context) error {
		for _, run := range runs {
			if err := s.RecordRun(ctx, run); err != nil {
				return err
			}
		}
		return nil
	})
}

// LastRuns returns up to n runs, newest first
func (s *Store) LastRuns(ctx context.Context, n int) ([]TaskRun, error) {
	result := make([]TaskRun, 0, n)
	err := s.view(ctx, func(tx *bolt.Tx) error {
		cursor := tx.Bucket(runsBucket).Cursor()
		for k, v := cursor.Last(); k != nil && len(result) < n; k, v = cursor.Prev() {
			var run TaskRun
			if err := json.Unmarshal(v, &run); err != nil {
				return eris.Wrapf(err, "corrupt run entry %x", k)
			}
			result = append(result, run)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to read task runs")
	}

	return result, nil
}
