package kvtab

import (
	"fmt"
	"log"
	"time"
)

// DB maps records of the registered tables onto a Store's key space.
// One logical connection, synchronous round trips, no client-side
// locking: concurrent writers interleave freely with any multi-key
// operation (an acknowledged limitation; only counter increments are
// relied on for concurrent correctness).
type DB struct {
	store   Store
	schema  *Schema
	prefix  string
	logf    func(format string, args ...any)
	verbose bool
	now     func() time.Time
}

type Options struct {
	// Prefix namespaces every key this DB writes. Empty means no
	// prefix segment.
	Prefix  string
	Logf    func(format string, args ...any)
	Verbose bool
}

func New(store Store, schema *Schema, opt Options) *DB {
	if store == nil {
		panic("nil store")
	}
	if schema == nil {
		panic("nil schema")
	}
	db := &DB{
		store:   store,
		schema:  schema,
		prefix:  opt.Prefix,
		logf:    opt.Logf,
		verbose: opt.Verbose,
		now:     time.Now,
	}
	if db.logf == nil {
		db.logf = log.Printf
	}
	return db
}

func (db *DB) Schema() *Schema {
	return db.schema
}

func (db *DB) Store() Store {
	return db.store
}

func (db *DB) Close() error {
	return db.store.Close()
}

func (db *DB) table(name string) (*Table, error) {
	tbl := db.schema.TableNamed(name)
	if tbl == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return tbl, nil
}
