// Package storage is the durable model store: models, elements,
// relationships, the version log, locks and the attribute dictionary, all in
// one SQLite database partitioned by model id.
package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/metamodel"
)

// Options tunes a Store. Zero values select the defaults.
type Options struct {
	Logger  *zap.SugaredLogger
	Catalog *metamodel.Catalog // nil disables type-name checks

	DefaultVersionLimit int // list_versions default, 100
	MaxVersionLimit     int // list_versions cap, 1000
	MaxModelList        int // list_models cap, 500
}

func (o *Options) fill() {
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	if o.DefaultVersionLimit <= 0 {
		o.DefaultVersionLimit = 100
	}
	if o.MaxVersionLimit <= 0 {
		o.MaxVersionLimit = 1000
	}
	if o.MaxModelList <= 0 {
		o.MaxModelList = 500
	}
}

// Store is safe for concurrent use. Every mutation runs in one write
// transaction that also appends its version entry.
type Store struct {
	db   *sql.DB
	log  *zap.SugaredLogger
	opts Options
	now  func() time.Time
}

// Open opens (creating if needed) the database at path and applies
// migrations. Write transactions begin IMMEDIATE so concurrent writers
// serialise on the database lock instead of failing on upgrade.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create data dir")
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping db")
	}

	s := New(db, opts)
	if err := Migrate(ctx, db, s.log); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Infow("Model store opened", "path", path)
	return s, nil
}

// New wraps an already-open database without migrating it.
func New(db *sql.DB, opts Options) *Store {
	opts.fill()
	return &Store{
		db:   db,
		log:  opts.Logger,
		opts: opts,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// readTx runs fn in a read-only transaction, so multi-query reads see one
// consistent state.
func (s *Store) readTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return errors.Wrap(err, "begin read tx")
	}
	defer tx.Rollback()
	return fn(tx)
}
