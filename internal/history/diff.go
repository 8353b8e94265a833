package history

import (
	"maps"

	"cloud.google.com/go/civil"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// Delta is the set of writes that turns one snapshot into another.
type Delta struct {
	// Model is set when name, description or attributes differ.
	Model               *models.Model
	PutElements         []models.Element
	DeleteElements      []string
	PutRelationships    []models.Relationship
	DeleteRelationships []string
}

// Empty reports whether applying the delta would change nothing.
func (d *Delta) Empty() bool {
	return d.Model == nil &&
		len(d.PutElements) == 0 && len(d.DeleteElements) == 0 &&
		len(d.PutRelationships) == 0 && len(d.DeleteRelationships) == 0
}

// Diff computes the delta from current to target. Entities are compared on
// every stored field, so applying the delta restores target exactly.
func Diff(current, target *models.Snapshot) Delta {
	var d Delta

	if current.Model.Name != target.Model.Name ||
		current.Model.Description != target.Model.Description ||
		!maps.Equal(current.Model.Attributes, target.Model.Attributes) {
		m := target.Model
		d.Model = &m
	}

	curEls := make(map[string]*models.Element, len(current.Elements))
	for i := range current.Elements {
		curEls[current.Elements[i].ID] = &current.Elements[i]
	}
	keepEls := make(map[string]bool, len(target.Elements))
	for _, want := range target.Elements {
		keepEls[want.ID] = true
		if have, ok := curEls[want.ID]; !ok || !elementEqual(have, &want) {
			d.PutElements = append(d.PutElements, want)
		}
	}
	for _, e := range current.Elements {
		if !keepEls[e.ID] {
			d.DeleteElements = append(d.DeleteElements, e.ID)
		}
	}

	curRels := make(map[string]*models.Relationship, len(current.Relationships))
	for i := range current.Relationships {
		curRels[current.Relationships[i].ID] = &current.Relationships[i]
	}
	keepRels := make(map[string]bool, len(target.Relationships))
	for _, want := range target.Relationships {
		keepRels[want.ID] = true
		if have, ok := curRels[want.ID]; !ok || !relationshipEqual(have, &want) {
			d.PutRelationships = append(d.PutRelationships, want)
		}
	}
	for _, r := range current.Relationships {
		if !keepRels[r.ID] {
			d.DeleteRelationships = append(d.DeleteRelationships, r.ID)
		}
	}

	return d
}

func elementEqual(a, b *models.Element) bool {
	return a.TypeName == b.TypeName &&
		a.Name == b.Name &&
		a.Version == b.Version &&
		maps.Equal(a.Attributes, b.Attributes) &&
		maps.Equal(a.Tags, b.Tags) &&
		dateEqual(a.ValidFrom, b.ValidFrom) &&
		dateEqual(a.ValidTo, b.ValidTo) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func relationshipEqual(a, b *models.Relationship) bool {
	return a.TypeName == b.TypeName &&
		a.Name == b.Name &&
		a.SourceElementID == b.SourceElementID &&
		a.TargetElementID == b.TargetElementID &&
		a.Version == b.Version &&
		maps.Equal(a.Attributes, b.Attributes) &&
		maps.Equal(a.Tags, b.Tags) &&
		dateEqual(a.ValidFrom, b.ValidFrom) &&
		dateEqual(a.ValidTo, b.ValidTo) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func dateEqual(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
