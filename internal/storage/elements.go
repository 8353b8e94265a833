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

const elementColumns = `model_id, id, type_name, name, attributes_json, tags_json, valid_from, valid_to, version, created_at, updated_at`

// ElementInput is a full element record. An empty ID creates a new element.
type ElementInput struct {
	ID         string
	TypeName   string
	Name       string
	Attributes map[string]string
	ValidFrom  *civil.Date
	ValidTo    *civil.Date
}

// ElementPatch changes only the fields that are set.
type ElementPatch struct {
	TypeName       *string
	Name           *string
	Attributes     map[string]string // replaces all attributes when non-nil
	ValidFrom      *civil.Date
	ValidTo        *civil.Date
	ClearValidFrom bool
	ClearValidTo   bool
}

// UpsertElement creates the element, or replaces it when ID names an existing
// one. Replacing keeps the element's tags and creation time.
func (s *Store) UpsertElement(ctx context.Context, modelID string, in ElementInput, opts WriteOptions) (*WriteResult, error) {
	typeName, err := s.elementType(in.TypeName)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.Required("name")
	}
	if err := checkInterval(in.ValidFrom, in.ValidTo); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}

	status := "created"
	version, _, err := s.mutate(ctx, modelID, models.ActionUpsertElement, "Element upserted", opts, func(w *writeTx) (bool, error) {
		if err := checkAttributeKeys(ctx, w.tx, modelID, models.TargetElement, in.Attributes); err != nil {
			return false, err
		}
		e := models.Element{
			ID: id, ModelID: modelID, TypeName: typeName, Name: name,
			Attributes: copyMap(in.Attributes), Tags: map[string]string{},
			ValidFrom: in.ValidFrom, ValidTo: in.ValidTo,
			Version: w.version, CreatedAt: w.now, UpdatedAt: w.now,
		}
		existing, err := getElement(ctx, w.tx, modelID, id)
		switch {
		case err == nil:
			status = "updated"
			e.Tags = existing.Tags
			e.CreatedAt = existing.CreatedAt
		case !errors.Is(err, errors.ErrNotFound):
			return false, err
		}
		return true, putElement(ctx, w.tx, &e)
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Status: status, ID: id, Version: version}, nil
}

// UpdateElement patches an existing element.
func (s *Store) UpdateElement(ctx context.Context, modelID, elementID string, patch ElementPatch, opts WriteOptions) (*WriteResult, error) {
	if elementID == "" {
		return nil, errors.Required("element_id")
	}
	var typeName string
	if patch.TypeName != nil {
		var err error
		if typeName, err = s.elementType(*patch.TypeName); err != nil {
			return nil, err
		}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, errors.Validation("name", "must not be empty")
	}

	version, _, err := s.mutate(ctx, modelID, models.ActionUpsertElement, "Element updated", opts, func(w *writeTx) (bool, error) {
		e, err := getElement(ctx, w.tx, modelID, elementID)
		if err != nil {
			return false, err
		}
		if patch.TypeName != nil {
			e.TypeName = typeName
		}
		if patch.Name != nil {
			e.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Attributes != nil {
			if err := checkAttributeKeys(ctx, w.tx, modelID, models.TargetElement, patch.Attributes); err != nil {
				return false, err
			}
			e.Attributes = copyMap(patch.Attributes)
		}
		e.ValidFrom = patchDate(e.ValidFrom, patch.ValidFrom, patch.ClearValidFrom)
		e.ValidTo = patchDate(e.ValidTo, patch.ValidTo, patch.ClearValidTo)
		if err := checkInterval(e.ValidFrom, e.ValidTo); err != nil {
			return false, err
		}
		e.Version = w.version
		e.UpdatedAt = w.now
		return true, putElement(ctx, w.tx, e)
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Status: "updated", ID: elementID, Version: version}, nil
}

// DeleteElement removes an element. Relationships that reference it are left
// in place and dangle.
func (s *Store) DeleteElement(ctx context.Context, modelID, elementID string, opts WriteOptions) (*WriteResult, error) {
	if elementID == "" {
		return nil, errors.Required("element_id")
	}
	version, _, err := s.mutate(ctx, modelID, models.ActionDeleteElement, "Element deleted", opts, func(w *writeTx) (bool, error) {
		return true, deleteRow(ctx, w.tx, "elements", "element", modelID, elementID)
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Status: "deleted", ID: elementID, Version: version}, nil
}

// GetElement returns one element.
func (s *Store) GetElement(ctx context.Context, modelID, elementID string) (*models.Element, error) {
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	return getElement(ctx, s.db, modelID, elementID)
}

// elementType resolves a type name against the catalogue and returns its
// canonical spelling.
func (s *Store) elementType(typeName string) (string, error) {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return "", errors.Required("type_name")
	}
	if s.opts.Catalog == nil {
		return typeName, nil
	}
	t, ok := s.opts.Catalog.Element(typeName)
	if !ok {
		return "", errors.Validationf("type_name", "unknown element type %q", typeName)
	}
	return t.Name, nil
}

func putElement(ctx context.Context, q querier, e *models.Element) error {
	attrs, err := encodeMap(e.Attributes)
	if err != nil {
		return err
	}
	tags, err := encodeMap(e.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT OR REPLACE INTO elements (`+elementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ModelID, e.ID, e.TypeName, e.Name, attrs, tags,
		formatDate(e.ValidFrom), formatDate(e.ValidTo),
		e.Version, formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "write element %q", e.ID)
	}
	return nil
}

func getElement(ctx context.Context, q querier, modelID, elementID string) (*models.Element, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+elementColumns+` FROM elements WHERE model_id = ? AND id = ?`, modelID, elementID)
	e, err := scanElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("element", elementID)
	}
	return e, err
}

func elementExists(ctx context.Context, q querier, modelID, elementID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM elements WHERE model_id = ? AND id = ?)`, modelID, elementID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check element")
	}
	return exists, nil
}

func listElements(ctx context.Context, q querier, modelID string) ([]models.Element, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+elementColumns+` FROM elements WHERE model_id = ? ORDER BY id`, modelID)
	if err != nil {
		return nil, errors.Wrap(err, "list elements")
	}
	defer rows.Close()

	out := []models.Element{}
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanElement(sc scanner) (*models.Element, error) {
	var e models.Element
	var attrs, tags, created, updated string
	var from, to sql.NullString
	err := sc.Scan(&e.ModelID, &e.ID, &e.TypeName, &e.Name, &attrs, &tags,
		&from, &to, &e.Version, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan element")
	}
	if e.Attributes, err = decodeMap(attrs); err != nil {
		return nil, err
	}
	if e.Tags, err = decodeMap(tags); err != nil {
		return nil, err
	}
	if e.ValidFrom, err = parseDate(from); err != nil {
		return nil, err
	}
	if e.ValidTo, err = parseDate(to); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &e, nil
}

// deleteRow deletes one element or relationship row, reporting NotFound when
// nothing matched.
func deleteRow(ctx context.Context, q querier, table, kind, modelID, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE model_id = ? AND id = ?`, modelID, id)
	if err != nil {
		return errors.Wrapf(err, "delete %s %q", kind, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete %s %q", kind, id)
	}
	if n == 0 {
		return errors.NotFound(kind, id)
	}
	return nil
}

func patchDate(cur, set *civil.Date, clear bool) *civil.Date {
	switch {
	case clear:
		return nil
	case set != nil:
		return set
	default:
		return cur
	}
}
