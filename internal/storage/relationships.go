package storage

import (
	"context"
	"database/sql"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

const relationshipColumns = `model_id, id, type_name, name, source_element_id, target_element_id, attributes_json, tags_json, valid_from, valid_to, version, created_at, updated_at`

// RelationshipInput is a full relationship record. An empty ID creates a new
// relationship.
type RelationshipInput struct {
	ID              string
	TypeName        string
	Name            string
	SourceElementID string
	TargetElementID string
	Attributes      map[string]string
	ValidFrom       *civil.Date
	ValidTo         *civil.Date
}

// RelationshipPatch changes only the fields that are set.
type RelationshipPatch struct {
	TypeName        *string
	Name            *string
	SourceElementID *string
	TargetElementID *string
	Attributes      map[string]string
	ValidFrom       *civil.Date
	ValidTo         *civil.Date
	ClearValidFrom  bool
	ClearValidTo    bool
}

// UpsertRelationship creates the relationship, or replaces it when ID names an
// existing one. Both endpoints must exist when they are set or changed.
func (s *Store) UpsertRelationship(ctx context.Context, modelID string, in RelationshipInput, opts WriteOptions) (*WriteResult, error) {
	typeName, err := s.relationshipType(in.TypeName)
	if err != nil {
		return nil, err
	}
	source := strings.TrimSpace(in.SourceElementID)
	target := strings.TrimSpace(in.TargetElementID)
	if source == "" {
		return nil, errors.Required("source_element_id")
	}
	if target == "" {
		return nil, errors.Required("target_element_id")
	}
	if err := checkInterval(in.ValidFrom, in.ValidTo); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}

	status := "created"
	version, _, err := s.mutate(ctx, modelID, models.ActionUpsertRelationship, "Relationship upserted", opts, func(w *writeTx) (bool, error) {
		existing, err := getRelationship(ctx, w.tx, modelID, id)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return false, err
		}
		if existing == nil || existing.SourceElementID != source {
			if err := requireEndpoint(ctx, w.tx, modelID, "source_element_id", source); err != nil {
				return false, err
			}
		}
		if existing == nil || existing.TargetElementID != target {
			if err := requireEndpoint(ctx, w.tx, modelID, "target_element_id", target); err != nil {
				return false, err
			}
		}
		if err := checkAttributeKeys(ctx, w.tx, modelID, models.TargetRelationship, in.Attributes); err != nil {
			return false, err
		}

		r := models.Relationship{
			ID: id, ModelID: modelID, TypeName: typeName, Name: strings.TrimSpace(in.Name),
			SourceElementID: source, TargetElementID: target,
			Attributes: copyMap(in.Attributes), Tags: map[string]string{},
			ValidFrom: in.ValidFrom, ValidTo: in.ValidTo,
			Version: w.version, CreatedAt: w.now, UpdatedAt: w.now,
		}
		if existing != nil {
			status = "updated"
			r.Tags = existing.Tags
			r.CreatedAt = existing.CreatedAt
		}
		return true, putRelationship(ctx, w.tx, &r)
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Status: status, ID: id, Version: version}, nil
}

// UpdateRelationship patches an existing relationship.
func (s *Store) UpdateRelationship(ctx context.Context, modelID, relationshipID string, patch RelationshipPatch, opts WriteOptions) (*WriteResult, error) {
	if relationshipID == "" {
		return nil, errors.Required("relationship_id")
	}
	var typeName string
	if patch.TypeName != nil {
		var err error
		if typeName, err = s.relationshipType(*patch.TypeName); err != nil {
			return nil, err
		}
	}

	version, _, err := s.mutate(ctx, modelID, models.ActionUpsertRelationship, "Relationship updated", opts, func(w *writeTx) (bool, error) {
		r, err := getRelationship(ctx, w.tx, modelID, relationshipID)
		if err != nil {
			return false, err
		}
		if patch.TypeName != nil {
			r.TypeName = typeName
		}
		if patch.Name != nil {
			r.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.SourceElementID != nil && *patch.SourceElementID != r.SourceElementID {
			if err := requireEndpoint(ctx, w.tx, modelID, "source_element_id", *patch.SourceElementID); err != nil {
				return false, err
			}
			r.SourceElementID = *patch.SourceElementID
		}
		if patch.TargetElementID != nil && *patch.TargetElementID != r.TargetElementID {
			if err := requireEndpoint(ctx, w.tx, modelID, "target_element_id", *patch.TargetElementID); err != nil {
				return false, err
			}
			r.TargetElementID = *patch.TargetElementID
		}
		if patch.Attributes != nil {
			if err := checkAttributeKeys(ctx, w.tx, modelID, models.TargetRelationship, patch.Attributes); err != nil {
				return false, err
			}
			r.Attributes = copyMap(patch.Attributes)
		}
		r.ValidFrom = patchDate(r.ValidFrom, patch.ValidFrom, patch.ClearValidFrom)
		r.ValidTo = patchDate(r.ValidTo, patch.ValidTo, patch.ClearValidTo)
		if err := checkInterval(r.ValidFrom, r.ValidTo); err != nil {
			return false, err
		}
		r.Version = w.version
		r.UpdatedAt = w.now
		return true, putRelationship(ctx, w.tx, r)
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Status: "updated", ID: relationshipID, Version: version}, nil
}

// DeleteRelationship removes a relationship.
func (s *Store) DeleteRelationship(ctx context.Context, modelID, relationshipID string, opts WriteOptions) (*WriteResult, error) {
	if relationshipID == "" {
		return nil, errors.Required("relationship_id")
	}
	version, _, err := s.mutate(ctx, modelID, models.ActionDeleteRelationship, "Relationship deleted", opts, func(w *writeTx) (bool, error) {
		return true, deleteRow(ctx, w.tx, "relationships", "relationship", modelID, relationshipID)
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Status: "deleted", ID: relationshipID, Version: version}, nil
}

// GetRelationship returns one relationship.
func (s *Store) GetRelationship(ctx context.Context, modelID, relationshipID string) (*models.Relationship, error) {
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	return getRelationship(ctx, s.db, modelID, relationshipID)
}

func (s *Store) relationshipType(typeName string) (string, error) {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return "", errors.Required("type_name")
	}
	if s.opts.Catalog == nil {
		return typeName, nil
	}
	t, ok := s.opts.Catalog.Relationship(typeName)
	if !ok {
		return "", errors.Validationf("type_name", "unknown relationship type %q", typeName)
	}
	return t.Name, nil
}

func requireEndpoint(ctx context.Context, q querier, modelID, field, elementID string) error {
	if elementID == "" {
		return errors.Required(field)
	}
	ok, err := elementExists(ctx, q, modelID, elementID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Reference(field, elementID)
	}
	return nil
}

func putRelationship(ctx context.Context, q querier, r *models.Relationship) error {
	attrs, err := encodeMap(r.Attributes)
	if err != nil {
		return err
	}
	tags, err := encodeMap(r.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT OR REPLACE INTO relationships (`+relationshipColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ModelID, r.ID, r.TypeName, r.Name, r.SourceElementID, r.TargetElementID, attrs, tags,
		formatDate(r.ValidFrom), formatDate(r.ValidTo),
		r.Version, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "write relationship %q", r.ID)
	}
	return nil
}

func getRelationship(ctx context.Context, q querier, modelID, relationshipID string) (*models.Relationship, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE model_id = ? AND id = ?`, modelID, relationshipID)
	r, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("relationship", relationshipID)
	}
	return r, err
}

func listRelationships(ctx context.Context, q querier, modelID string) ([]models.Relationship, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE model_id = ? ORDER BY id`, modelID)
	if err != nil {
		return nil, errors.Wrap(err, "list relationships")
	}
	defer rows.Close()

	out := []models.Relationship{}
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRelationship(sc scanner) (*models.Relationship, error) {
	var r models.Relationship
	var attrs, tags, created, updated string
	var from, to sql.NullString
	err := sc.Scan(&r.ModelID, &r.ID, &r.TypeName, &r.Name, &r.SourceElementID, &r.TargetElementID,
		&attrs, &tags, &from, &to, &r.Version, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan relationship")
	}
	if r.Attributes, err = decodeMap(attrs); err != nil {
		return nil, err
	}
	if r.Tags, err = decodeMap(tags); err != nil {
		return nil, err
	}
	if r.ValidFrom, err = parseDate(from); err != nil {
		return nil, err
	}
	if r.ValidTo, err = parseDate(to); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &r, nil
}
