package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/history"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// VersionDetail is a version entry with the model state it recorded.
type VersionDetail struct {
	models.VersionEntry
	Snapshot *models.Snapshot `json:"snapshot"`
}

// RevertResult summarises a revert.
type RevertResult struct {
	FromVersion           int  `json:"from_version"`
	Version               int  `json:"version"`
	ElementsRestored      int  `json:"elements_restored"`
	ElementsRemoved       int  `json:"elements_removed"`
	RelationshipsRestored int  `json:"relationships_restored"`
	RelationshipsRemoved  int  `json:"relationships_removed"`
	ModelRestored         bool `json:"model_restored"`
	Unchanged             bool `json:"unchanged"` // target state already matched
}

// ListVersions returns version entries newest first.
func (s *Store) ListVersions(ctx context.Context, modelID string, limit int) ([]models.VersionEntry, error) {
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.DefaultVersionLimit
	}
	if limit > s.opts.MaxVersionLimit {
		limit = s.opts.MaxVersionLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, version, created_at, author, message, action
		 FROM versions WHERE model_id = ? ORDER BY version DESC LIMIT ?`,
		modelID, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list versions")
	}
	defer rows.Close()

	out := []models.VersionEntry{}
	for rows.Next() {
		var v models.VersionEntry
		var created string
		if err := rows.Scan(&v.ModelID, &v.Version, &created, &v.Author, &v.Message, &v.Action); err != nil {
			return nil, errors.Wrap(err, "scan version")
		}
		if v.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVersion returns one version entry and the exact model state after it.
func (s *Store) GetVersion(ctx context.Context, modelID string, version int) (*VersionDetail, error) {
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	return getVersion(ctx, s.db, modelID, version)
}

// RevertVersion restores the state recorded at version by applying the delta
// from the current state as a new revert version. History is never rewritten.
func (s *Store) RevertVersion(ctx context.Context, modelID string, version int, opts WriteOptions) (*RevertResult, error) {
	if version <= 0 {
		return nil, errors.Validation("version", "must be positive")
	}

	res := &RevertResult{FromVersion: version}
	newVersion, _, err := s.mutate(ctx, modelID, models.ActionRevert, fmt.Sprintf("Reverted to version %d", version), opts, func(w *writeTx) (bool, error) {
		target, err := getVersion(ctx, w.tx, modelID, version)
		if err != nil {
			return false, err
		}
		current, err := loadSnapshot(ctx, w.tx, modelID)
		if err != nil {
			return false, err
		}

		delta := history.Diff(current, target.Snapshot)
		res.Unchanged = delta.Empty()
		if delta.Model != nil {
			m := w.model
			m.Name = delta.Model.Name
			m.Description = delta.Model.Description
			m.Attributes = delta.Model.Attributes
			if err := writeModelFields(ctx, w.tx, &m); err != nil {
				return false, err
			}
			res.ModelRestored = true
		}
		for _, id := range delta.DeleteRelationships {
			if err := deleteRow(ctx, w.tx, "relationships", "relationship", modelID, id); err != nil {
				return false, err
			}
		}
		for _, id := range delta.DeleteElements {
			if err := deleteRow(ctx, w.tx, "elements", "element", modelID, id); err != nil {
				return false, err
			}
		}
		for i := range delta.PutElements {
			if err := putElement(ctx, w.tx, &delta.PutElements[i]); err != nil {
				return false, err
			}
		}
		for i := range delta.PutRelationships {
			if err := putRelationship(ctx, w.tx, &delta.PutRelationships[i]); err != nil {
				return false, err
			}
		}

		res.ElementsRestored = len(delta.PutElements)
		res.ElementsRemoved = len(delta.DeleteElements)
		res.RelationshipsRestored = len(delta.PutRelationships)
		res.RelationshipsRemoved = len(delta.DeleteRelationships)
		// A revert is recorded even when the state already matches.
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = newVersion
	s.log.Infow("Model reverted", "model_id", modelID, "from_version", version, "version", newVersion, "unchanged", res.Unchanged)
	return res, nil
}

func getVersion(ctx context.Context, q querier, modelID string, version int) (*VersionDetail, error) {
	var d VersionDetail
	var created string
	var blob []byte
	err := q.QueryRowContext(ctx,
		`SELECT model_id, version, created_at, author, message, action, snapshot
		 FROM versions WHERE model_id = ? AND version = ?`,
		modelID, version,
	).Scan(&d.ModelID, &d.Version, &created, &d.Author, &d.Message, &d.Action, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("version", modelID+"@"+strconv.Itoa(version))
	}
	if err != nil {
		return nil, errors.Wrap(err, "read version")
	}
	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if d.Snapshot, err = history.Decode(blob); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %d", version)
	}
	return &d, nil
}
