package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/history"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// WriteOptions are accepted by every mutation.
type WriteOptions struct {
	// ExpectedVersion, when set, must equal the model's current version or
	// the write fails with ErrVersionConflict and changes nothing.
	ExpectedVersion *int
	Author          string
	Message         string
}

// Expect is a convenience for WriteOptions.ExpectedVersion.
func Expect(v int) *int { return &v }

// WriteResult reports the outcome of a mutation.
type WriteResult struct {
	Status  string `json:"status"` // created, updated, deleted, unchanged, reverted
	ID      string `json:"id,omitempty"`
	Version int    `json:"version"`
}

// writeTx is the state handed to a mutation: the open transaction, the model
// as it was before the write and the version the write will commit as.
type writeTx struct {
	tx      *sql.Tx
	model   models.Model
	version int
	now     time.Time
}

// mutate is the single write path. Inside one transaction it checks the
// expected version, runs apply, and when apply reports a change it bumps the
// model version and appends the version entry with a full snapshot. Either
// all of that commits or none of it does.
func (s *Store) mutate(ctx context.Context, modelID, action, defaultMessage string, opts WriteOptions, apply func(w *writeTx) (bool, error)) (int, bool, error) {
	if modelID == "" {
		return 0, false, errors.Required("model_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	m, err := getModel(ctx, tx, modelID)
	if err != nil {
		return 0, false, err
	}
	if opts.ExpectedVersion != nil && *opts.ExpectedVersion != m.Version {
		return 0, false, errors.VersionConflict(modelID, *opts.ExpectedVersion, m.Version)
	}

	w := &writeTx{tx: tx, model: *m, version: m.Version + 1, now: s.now()}
	changed, err := apply(w)
	if err != nil {
		return 0, false, err
	}
	if !changed {
		return m.Version, false, nil
	}

	message := opts.Message
	if message == "" {
		message = defaultMessage
	}
	if err := s.recordVersion(ctx, w, action, opts.Author, message); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, errors.Wrap(err, "commit")
	}

	s.log.Debugw("Committed version", "model_id", modelID, "version", w.version, "action", action)
	return w.version, true, nil
}

// recordVersion advances the model's version counter with a compare-and-swap
// and appends the version entry holding the post-write snapshot.
func (s *Store) recordVersion(ctx context.Context, w *writeTx, action, author, message string) error {
	res, err := w.tx.ExecContext(ctx,
		`UPDATE models SET version = ?, updated_at = ? WHERE id = ? AND version = ?`,
		w.version, formatTime(w.now), w.model.ID, w.model.Version,
	)
	if err != nil {
		return errors.Wrap(err, "bump model version")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "bump model version")
	}
	if n != 1 {
		current := w.model.Version
		if m, err := getModel(ctx, w.tx, w.model.ID); err == nil {
			current = m.Version
		}
		return errors.VersionConflict(w.model.ID, w.model.Version, current)
	}

	return s.appendVersion(ctx, w.tx, w.model.ID, w.version, w.now, action, author, message)
}

func (s *Store) appendVersion(ctx context.Context, q querier, modelID string, version int, at time.Time, action, author, message string) error {
	snap, err := loadSnapshot(ctx, q, modelID)
	if err != nil {
		return err
	}
	blob, err := history.Encode(snap)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO versions (model_id, version, created_at, author, message, action, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		modelID, version, formatTime(at), author, message, action, blob,
	)
	if err != nil {
		return errors.Wrapf(err, "insert version %d", version)
	}
	return nil
}
