package models

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// Target types accepted by the attribute dictionary and tag operations.
const (
	TargetElement      = "element"
	TargetRelationship = "relationship"
)

// Action names recorded on version entries.
const (
	ActionCreateModel        = "create_model"
	ActionUpdateModel        = "update_model"
	ActionUpsertElement      = "upsert_element"
	ActionDeleteElement      = "delete_element"
	ActionUpsertRelationship = "upsert_relationship"
	ActionDeleteRelationship = "delete_relationship"
	ActionAddTag             = "add_tag"
	ActionRemoveTag          = "remove_tag"
	ActionRevert             = "revert"
)

// Model is a named container of elements and relationships. Version always
// equals the newest version entry.
type Model struct {
	ID          string            `json:"id" msgpack:"id"`
	Name        string            `json:"name" msgpack:"name"`
	Description string            `json:"description" msgpack:"description"`
	Attributes  map[string]string `json:"attributes" msgpack:"attributes"`
	Version     int               `json:"version" msgpack:"version"`
	CreatedAt   time.Time         `json:"created_at" msgpack:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" msgpack:"updated_at"`
}

// Element is a typed graph node.
type Element struct {
	ID         string            `json:"id" msgpack:"id"`
	ModelID    string            `json:"model_id" msgpack:"model_id"`
	TypeName   string            `json:"type_name" msgpack:"type_name"`
	Name       string            `json:"name" msgpack:"name"`
	Attributes map[string]string `json:"attributes" msgpack:"attributes"`
	Tags       map[string]string `json:"tags" msgpack:"tags"`
	ValidFrom  *civil.Date       `json:"valid_from,omitempty" msgpack:"valid_from,omitempty"`
	ValidTo    *civil.Date       `json:"valid_to,omitempty" msgpack:"valid_to,omitempty"`
	Version    int               `json:"version" msgpack:"version"`
	CreatedAt  time.Time         `json:"created_at" msgpack:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" msgpack:"updated_at"`
}

// Relationship is a typed directed edge. Its endpoints may dangle after the
// referenced element is deleted.
type Relationship struct {
	ID              string            `json:"id" msgpack:"id"`
	ModelID         string            `json:"model_id" msgpack:"model_id"`
	TypeName        string            `json:"type_name" msgpack:"type_name"`
	Name            string            `json:"name,omitempty" msgpack:"name,omitempty"`
	SourceElementID string            `json:"source_element_id" msgpack:"source_element_id"`
	TargetElementID string            `json:"target_element_id" msgpack:"target_element_id"`
	Attributes      map[string]string `json:"attributes" msgpack:"attributes"`
	Tags            map[string]string `json:"tags" msgpack:"tags"`
	ValidFrom       *civil.Date       `json:"valid_from,omitempty" msgpack:"valid_from,omitempty"`
	ValidTo         *civil.Date       `json:"valid_to,omitempty" msgpack:"valid_to,omitempty"`
	Version         int               `json:"version" msgpack:"version"`
	CreatedAt       time.Time         `json:"created_at" msgpack:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" msgpack:"updated_at"`
}

// VersionEntry is one immutable record of the version log.
type VersionEntry struct {
	ModelID   string    `json:"model_id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"timestamp"`
	Author    string    `json:"author,omitempty"`
	Message   string    `json:"message,omitempty"`
	Action    string    `json:"action"`
}

// Snapshot is the complete state of a model at one version. Elements and
// relationships are ordered by id.
type Snapshot struct {
	Model         Model          `json:"model" msgpack:"model"`
	Elements      []Element      `json:"elements" msgpack:"elements"`
	Relationships []Relationship `json:"relationships" msgpack:"relationships"`
}

// Sort orders elements and relationships by id.
func (s *Snapshot) Sort() {
	sort.Slice(s.Elements, func(i, j int) bool { return s.Elements[i].ID < s.Elements[j].ID })
	sort.Slice(s.Relationships, func(i, j int) bool { return s.Relationships[i].ID < s.Relationships[j].ID })
}

// Lock is the advisory per-model lock.
type Lock struct {
	ModelID    string    `json:"model_id"`
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// AttributeDefinition is one attribute/tag dictionary entry.
type AttributeDefinition struct {
	ModelID     string `json:"model_id"`
	TargetType  string `json:"target_type"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	IsTag       bool   `json:"is_tag"`
}

// ValidAt reports whether the interval [from, to] contains at. Nil bounds are
// open.
func ValidAt(from, to *civil.Date, at civil.Date) bool {
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && at.After(*to) {
		return false
	}
	return true
}

// ValidAt reports whether the element is valid on the given date.
func (e *Element) ValidAt(at civil.Date) bool {
	return ValidAt(e.ValidFrom, e.ValidTo, at)
}

// ValidAt reports whether the relationship is valid on the given date.
func (r *Relationship) ValidAt(at civil.Date) bool {
	return ValidAt(r.ValidFrom, r.ValidTo, at)
}
