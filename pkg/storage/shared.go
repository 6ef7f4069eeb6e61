// Package storage keeps docker-captain's state (active projects and the task run history) in
// a bbolt database inside the user data directory.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	bolt "go.etcd.io/bbolt"
)

// FileName is the name of the database inside the data directory
const FileName = "state.db"

type txCtxKey struct{}

// Store wraps the state database
type Store struct {
	db   *bolt.DB
	path string
}

var buckets = [][]byte{projectsBucket, runsBucket}

// Open opens (or creates) the state database in dir
func Open(ctx context.Context, dir string) (*Store, error) {
	err := os.MkdirAll(dir, 0o700)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create %s", dir)
	}

	dbPath := filepath.Join(dir, FileName)
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open %s", dbPath)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range buckets {
			_, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to initialize buckets")
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the location of the database file
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

func CtxWithTx(ctx context.Context, tx *bolt.Tx) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

func TxFromCtx(ctx context.Context) *bolt.Tx {
	val := ctx.Value(txCtxKey{})
	if val == nil {
		return nil
	}
	return val.(*bolt.Tx)
}

// BatchUpdate runs callback in a writable transaction which can be retrieved with TxFromCtx
func (s *Store) BatchUpdate(ctx context.Context, callback func(context.Context) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return callback(CtxWithTx(ctx, tx))
	})
}

// view reuses the transaction from ctx if there is one
func (s *Store) view(ctx context.Context, fn func(*bolt.Tx) error) error {
	if tx := TxFromCtx(ctx); tx != nil {
		return fn(tx)
	}
	return s.db.View(fn)
}

// update reuses the transaction from ctx if it's writable
func (s *Store) update(ctx context.Context, fn func(*bolt.Tx) error) error {
	if tx := TxFromCtx(ctx); tx != nil && tx.Writable() {
		return fn(tx)
	}
	return s.db.Update(fn)
}
