package storage

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// DefineAttribute upserts a dictionary entry. Redefining a key overwrites its
// description and is_tag flag. Dictionary changes are not versioned.
func (s *Store) DefineAttribute(ctx context.Context, def models.AttributeDefinition) (*models.AttributeDefinition, error) {
	if err := checkTargetType(def.TargetType); err != nil {
		return nil, err
	}
	def.Key = strings.TrimSpace(def.Key)
	if def.Key == "" {
		return nil, errors.Required("key")
	}
	if _, err := s.GetModel(ctx, def.ModelID); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attribute_definitions (model_id, target_type, key, description, is_tag)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (model_id, target_type, key)
		 DO UPDATE SET description = excluded.description, is_tag = excluded.is_tag`,
		def.ModelID, def.TargetType, def.Key, def.Description, def.IsTag,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "define %s key %q", def.TargetType, def.Key)
	}
	return &def, nil
}

// ListDefinitions lists dictionary entries, optionally for one target type.
func (s *Store) ListDefinitions(ctx context.Context, modelID, targetType string) ([]models.AttributeDefinition, error) {
	return s.listDefinitions(ctx, modelID, targetType, false)
}

// ListTags lists dictionary entries flagged is_tag.
func (s *Store) ListTags(ctx context.Context, modelID, targetType string) ([]models.AttributeDefinition, error) {
	return s.listDefinitions(ctx, modelID, targetType, true)
}

func (s *Store) listDefinitions(ctx context.Context, modelID, targetType string, tagsOnly bool) ([]models.AttributeDefinition, error) {
	if targetType != "" {
		if err := checkTargetType(targetType); err != nil {
			return nil, err
		}
	}
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return nil, err
	}

	query := `SELECT model_id, target_type, key, description, is_tag FROM attribute_definitions WHERE model_id = ?`
	args := []any{modelID}
	if targetType != "" {
		query += ` AND target_type = ?`
		args = append(args, targetType)
	}
	if tagsOnly {
		query += ` AND is_tag = 1`
	}
	query += ` ORDER BY target_type, key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list definitions")
	}
	defer rows.Close()

	out := []models.AttributeDefinition{}
	for rows.Next() {
		var d models.AttributeDefinition
		if err := rows.Scan(&d.ModelID, &d.TargetType, &d.Key, &d.Description, &d.IsTag); err != nil {
			return nil, errors.Wrap(err, "scan definition")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDefinition removes one dictionary entry. Tags already written with
// the key stay in place.
func (s *Store) DeleteDefinition(ctx context.Context, modelID, targetType, key string) error {
	if err := checkTargetType(targetType); err != nil {
		return err
	}
	if _, err := s.GetModel(ctx, modelID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM attribute_definitions WHERE model_id = ? AND target_type = ? AND key = ?`,
		modelID, targetType, key,
	)
	if err != nil {
		return errors.Wrapf(err, "delete definition %q", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete definition")
	}
	if n == 0 {
		return errors.NotFound("definition", targetType+"/"+key)
	}
	return nil
}

// requireTagKey fails with ErrUnknownTagKey unless key is a registered tag.
func requireTagKey(ctx context.Context, q querier, modelID, targetType, key string) error {
	var isTag bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM attribute_definitions
		 WHERE model_id = ? AND target_type = ? AND key = ? AND is_tag = 1)`,
		modelID, targetType, key,
	).Scan(&isTag)
	if err != nil {
		return errors.Wrap(err, "look up tag key")
	}
	if !isTag {
		return errors.UnknownTagKey(targetType, key)
	}
	return nil
}

// checkAttributeKeys enforces the attribute dictionary once the model defines
// at least one non-tag key for the target type. Models without attribute
// definitions accept any key.
func checkAttributeKeys(ctx context.Context, q querier, modelID, targetType string, attrs map[string]string) error {
	if len(attrs) == 0 {
		return nil
	}
	defined, err := attributeKeys(ctx, q, modelID, targetType)
	if err != nil {
		return err
	}
	if len(defined) == 0 {
		return nil
	}

	known := make(map[string]bool, len(defined))
	for _, k := range defined {
		known[k] = true
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if known[k] {
			continue
		}
		err := errors.Validationf("attributes", "key %q is not defined for %s targets", k, targetType)
		if hint := ClosestKey(k, defined); hint != "" {
			err = errors.WithHintf(err, "did you mean %q?", hint)
		}
		return err
	}
	return nil
}

func attributeKeys(ctx context.Context, q querier, modelID, targetType string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT key FROM attribute_definitions WHERE model_id = ? AND target_type = ? AND is_tag = 0 ORDER BY key`,
		modelID, targetType,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list attribute keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "scan attribute key")
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ClosestKey returns the candidate nearest to key by edit distance, or ""
// when nothing is reasonably close.
func ClosestKey(key string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		if strings.EqualFold(c, key) {
			return c
		}
		d := fuzzy.LevenshteinDistance(strings.ToLower(key), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	// Allow roughly one edit per three characters.
	if bestDist < 0 || bestDist > max(1, len(key)/3) {
		return ""
	}
	return best
}

func checkTargetType(targetType string) error {
	switch targetType {
	case models.TargetElement, models.TargetRelationship:
		return nil
	case "":
		return errors.Required("target_type")
	default:
		return errors.Validationf("target_type", "must be %q or %q, got %q", models.TargetElement, models.TargetRelationship, targetType)
	}
}
