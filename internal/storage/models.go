package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

const modelColumns = `id, name, description, attributes_json, version, created_at, updated_at`

// CreateModelInput describes a new model. ID is generated when empty.
type CreateModelInput struct {
	ID          string
	Name        string
	Description string
	Attributes  map[string]string
}

// ModelPatch changes only the fields that are set.
type ModelPatch struct {
	Name        *string
	Description *string
	Attributes  map[string]string // replaces all attributes when non-nil
}

// CreateModel inserts a model and records version 1.
func (s *Store) CreateModel(ctx context.Context, in CreateModelInput, author, message string) (*models.Model, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.Required("name")
	}
	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	attrs, err := encodeMap(in.Attributes)
	if err != nil {
		return nil, err
	}
	if message == "" {
		message = "Model created"
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM models WHERE id = ?)`, id).Scan(&exists); err != nil {
		return nil, errors.Wrap(err, "check model id")
	}
	if exists {
		return nil, errors.Validationf("id", "model %q already exists", id)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO models (`+modelColumns+`) VALUES (?, ?, ?, ?, 1, ?, ?)`,
		id, name, in.Description, attrs, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "insert model %q", name)
	}
	if err := s.appendVersion(ctx, tx, id, 1, now, models.ActionCreateModel, author, message); err != nil {
		return nil, err
	}

	m, err := getModel(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	s.log.Infow("Model created", "model_id", id, "name", name)
	return m, nil
}

// GetModel returns the model record.
func (s *Store) GetModel(ctx context.Context, modelID string) (*models.Model, error) {
	if modelID == "" {
		return nil, errors.Required("model_id")
	}
	return getModel(ctx, s.db, modelID)
}

// ListModels returns models whose name or description contains search
// (case-insensitive), most recently updated first.
func (s *Store) ListModels(ctx context.Context, search string, limit int) ([]models.Model, error) {
	if limit <= 0 || limit > s.opts.MaxModelList {
		limit = s.opts.MaxModelList
	}

	query := `SELECT ` + modelColumns + ` FROM models`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(search) + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY updated_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list models")
	}
	defer rows.Close()

	out := []models.Model{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// UpdateModel patches model fields and records an update_model version.
func (s *Store) UpdateModel(ctx context.Context, modelID string, patch ModelPatch, opts WriteOptions) (*models.Model, error) {
	if patch.Name == nil && patch.Description == nil && patch.Attributes == nil {
		return nil, errors.Validation("", "nothing to update: set name, description or attributes")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, errors.Validation("name", "must not be empty")
	}

	_, _, err := s.mutate(ctx, modelID, models.ActionUpdateModel, "Model updated", opts, func(w *writeTx) (bool, error) {
		m := w.model
		if patch.Name != nil {
			m.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			m.Description = *patch.Description
		}
		if patch.Attributes != nil {
			m.Attributes = patch.Attributes
		}
		return true, writeModelFields(ctx, w.tx, &m)
	})
	if err != nil {
		return nil, err
	}
	return s.GetModel(ctx, modelID)
}

// DeleteModel removes the model with its elements, relationships, versions,
// lock and dictionary.
func (s *Store) DeleteModel(ctx context.Context, modelID string) error {
	if modelID == "" {
		return errors.Required("model_id")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, modelID)
	if err != nil {
		return errors.Wrapf(err, "delete model %q", modelID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete model")
	}
	if n == 0 {
		return errors.NotFound("model", modelID)
	}
	s.log.Infow("Model deleted", "model_id", modelID)
	return nil
}

// LoadSnapshot returns the current state of a model read in one transaction.
func (s *Store) LoadSnapshot(ctx context.Context, modelID string) (*models.Snapshot, error) {
	if modelID == "" {
		return nil, errors.Required("model_id")
	}
	var snap *models.Snapshot
	err := s.readTx(ctx, func(tx *sql.Tx) error {
		var err error
		snap, err = loadSnapshot(ctx, tx, modelID)
		return err
	})
	return snap, err
}

func writeModelFields(ctx context.Context, q querier, m *models.Model) error {
	attrs, err := encodeMap(m.Attributes)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`UPDATE models SET name = ?, description = ?, attributes_json = ? WHERE id = ?`,
		m.Name, m.Description, attrs, m.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "update model %q", m.ID)
	}
	return nil
}

func getModel(ctx context.Context, q querier, modelID string) (*models.Model, error) {
	row := q.QueryRowContext(ctx, `SELECT `+modelColumns+` FROM models WHERE id = ?`, modelID)
	m, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("model", modelID)
	}
	return m, err
}

func loadSnapshot(ctx context.Context, q querier, modelID string) (*models.Snapshot, error) {
	m, err := getModel(ctx, q, modelID)
	if err != nil {
		return nil, err
	}
	els, err := listElements(ctx, q, modelID)
	if err != nil {
		return nil, err
	}
	rels, err := listRelationships(ctx, q, modelID)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{Model: *m, Elements: els, Relationships: rels}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(sc scanner) (*models.Model, error) {
	var m models.Model
	var attrs, created, updated string
	if err := sc.Scan(&m.ID, &m.Name, &m.Description, &attrs, &m.Version, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan model")
	}
	var err error
	if m.Attributes, err = decodeMap(attrs); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
