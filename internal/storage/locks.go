package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// LockStatus is the result of lock operations.
type LockStatus struct {
	Status string       `json:"status,omitempty"` // acquired, already_locked, released, not_locked
	Locked bool         `json:"locked"`
	Lock   *models.Lock `json:"lock,omitempty"`
}

// AcquireLock takes the advisory lock for owner. A lock held by another owner
// is a conflict unless force is set, in which case it is taken over. Locks do
// not block writes; expected_version does.
func (s *Store) AcquireLock(ctx context.Context, modelID, owner string, force bool) (*LockStatus, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, errors.Required("owner")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if _, err := getModel(ctx, tx, modelID); err != nil {
		return nil, err
	}
	cur, err := getLock(ctx, tx, modelID)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		if cur.Owner == owner {
			return &LockStatus{Status: "already_locked", Locked: true, Lock: cur}, nil
		}
		if !force {
			return nil, errors.LockConflict(modelID, cur.Owner, owner)
		}
		s.log.Warnw("Lock taken over", "model_id", modelID, "previous_owner", cur.Owner, "owner", owner)
	}

	lock := &models.Lock{ModelID: modelID, Owner: owner, AcquiredAt: s.now()}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO locks (model_id, owner, acquired_at) VALUES (?, ?, ?)`,
		lock.ModelID, lock.Owner, formatTime(lock.AcquiredAt),
	)
	if err != nil {
		return nil, errors.Wrap(err, "write lock")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return &LockStatus{Status: "acquired", Locked: true, Lock: lock}, nil
}

// ReleaseLock drops the lock. Only the owner may release it unless force is
// set. Releasing an unlocked model reports not_locked.
func (s *Store) ReleaseLock(ctx context.Context, modelID, owner string, force bool) (*LockStatus, error) {
	owner = strings.TrimSpace(owner)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if _, err := getModel(ctx, tx, modelID); err != nil {
		return nil, err
	}
	cur, err := getLock(ctx, tx, modelID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return &LockStatus{Status: "not_locked"}, nil
	}
	if cur.Owner != owner && !force {
		return nil, errors.LockConflict(modelID, cur.Owner, owner)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM locks WHERE model_id = ?`, modelID); err != nil {
		return nil, errors.Wrap(err, "delete lock")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return &LockStatus{Status: "released", Lock: cur}, nil
}

// GetLock reports the current lock, if any.
func (s *Store) GetLock(ctx context.Context, modelID string) (*LockStatus, error) {
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	cur, err := getLock(ctx, s.db, modelID)
	if err != nil {
		return nil, err
	}
	return &LockStatus{Locked: cur != nil, Lock: cur}, nil
}

func getLock(ctx context.Context, q querier, modelID string) (*models.Lock, error) {
	var l models.Lock
	var acquired string
	err := q.QueryRowContext(ctx,
		`SELECT model_id, owner, acquired_at FROM locks WHERE model_id = ?`, modelID,
	).Scan(&l.ModelID, &l.Owner, &acquired)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read lock")
	}
	if l.AcquiredAt, err = parseTime(acquired); err != nil {
		return nil, err
	}
	return &l, nil
}
