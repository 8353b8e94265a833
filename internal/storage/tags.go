package storage

import (
	"context"
	"strings"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// TagTarget selects the entity a tag operation applies to. Exactly one field
// must be set.
type TagTarget struct {
	ElementID      string
	RelationshipID string
}

func (t TagTarget) resolve() (targetType, id string, err error) {
	switch {
	case t.ElementID != "" && t.RelationshipID != "":
		return "", "", errors.Validation("element_id", "supply element_id or relationship_id, not both")
	case t.ElementID != "":
		return models.TargetElement, t.ElementID, nil
	case t.RelationshipID != "":
		return models.TargetRelationship, t.RelationshipID, nil
	default:
		return "", "", errors.Validation("element_id", "supply element_id or relationship_id")
	}
}

// AddTag sets tags[key] = value on the target. The key must be registered as
// a tag for the target type.
func (s *Store) AddTag(ctx context.Context, modelID string, target TagTarget, key, value string, opts WriteOptions) (*WriteResult, error) {
	targetType, id, err := target.resolve()
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.Required("key")
	}

	version, _, err := s.mutate(ctx, modelID, models.ActionAddTag, "Tag added: "+key, opts, func(w *writeTx) (bool, error) {
		if err := requireTagKey(ctx, w.tx, modelID, targetType, key); err != nil {
			return false, err
		}
		return true, s.editTags(ctx, w, targetType, id, func(tags map[string]string) bool {
			tags[key] = value
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Status: "updated", ID: id, Version: version}, nil
}

// RemoveTag deletes key from the target's tags. Removing an absent key is not
// an error and records no version.
func (s *Store) RemoveTag(ctx context.Context, modelID string, target TagTarget, key string, opts WriteOptions) (*WriteResult, error) {
	targetType, id, err := target.resolve()
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.Required("key")
	}

	var removed bool
	version, changed, err := s.mutate(ctx, modelID, models.ActionRemoveTag, "Tag removed: "+key, opts, func(w *writeTx) (bool, error) {
		err := s.editTags(ctx, w, targetType, id, func(tags map[string]string) bool {
			if _, ok := tags[key]; !ok {
				return false
			}
			delete(tags, key)
			removed = true
			return true
		})
		return removed, err
	})
	if err != nil {
		return nil, err
	}
	status := "updated"
	if !changed {
		status = "unchanged"
	}
	return &WriteResult{Status: status, ID: id, Version: version}, nil
}

// editTags loads the target, lets edit change its tags and writes it back
// when edit reports a change.
func (s *Store) editTags(ctx context.Context, w *writeTx, targetType, id string, edit func(map[string]string) bool) error {
	switch targetType {
	case models.TargetElement:
		e, err := getElement(ctx, w.tx, w.model.ID, id)
		if err != nil {
			return err
		}
		if !edit(e.Tags) {
			return nil
		}
		e.Version = w.version
		e.UpdatedAt = w.now
		return putElement(ctx, w.tx, e)
	default:
		r, err := getRelationship(ctx, w.tx, w.model.ID, id)
		if err != nil {
			return err
		}
		if !edit(r.Tags) {
			return nil
		}
		r.Version = w.version
		r.UpdatedAt = w.now
		return putRelationship(ctx, w.tx, r)
	}
}
