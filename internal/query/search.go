package query

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
)

// ElementFilter is a conjunction; empty fields do not filter.
type ElementFilter struct {
	TypeName       string
	Layer          string
	Aspect         string
	AttributeKey   string
	AttributeValue *string
	TagKey         string
	TagValue       *string
	Search         string // substring of id, name or type name
	ValidAt        *civil.Date
	Limit          int
}

// ElementHit is an element enriched with its metamodel classification.
type ElementHit struct {
	models.Element
	Layer  string `json:"layer,omitempty"`
	Aspect string `json:"aspect,omitempty"`
}

// ElementResults is the result of SearchElements.
type ElementResults struct {
	Elements  []ElementHit `json:"elements"`
	Count     int          `json:"count"`
	Truncated bool         `json:"truncated"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// SearchElements returns matching elements ordered by id.
func (e *Engine) SearchElements(ctx context.Context, modelID string, f ElementFilter) (*ElementResults, error) {
	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}

	res := &ElementResults{Elements: []ElementHit{}}
	if f.AttributeKey != "" {
		key, warning, err := e.correctAttributeKey(ctx, modelID, f.AttributeKey)
		if err != nil {
			return nil, err
		}
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
		f.AttributeKey = key
	}

	limit := e.limit(f.Limit)
	for i := range snap.Elements {
		el := &snap.Elements[i]
		if !e.matchElement(el, &f) {
			continue
		}
		if len(res.Elements) == limit {
			res.Truncated = true
			break
		}
		res.Elements = append(res.Elements, e.hit(el))
	}
	res.Count = len(res.Elements)
	return res, nil
}

func (e *Engine) matchElement(el *models.Element, f *ElementFilter) bool {
	if f.TypeName != "" && !strings.EqualFold(el.TypeName, strings.TrimSpace(f.TypeName)) {
		return false
	}
	if f.Layer != "" && !strings.EqualFold(e.catalog.LayerOf(el.TypeName), f.Layer) {
		return false
	}
	if f.Aspect != "" && !strings.EqualFold(e.catalog.AspectOf(el.TypeName), f.Aspect) {
		return false
	}
	if f.AttributeKey != "" && !matchKV(el.Attributes, f.AttributeKey, f.AttributeValue) {
		return false
	}
	if f.TagKey != "" && !matchKV(el.Tags, f.TagKey, f.TagValue) {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, el.ID, el.Name, el.TypeName) {
		return false
	}
	if f.ValidAt != nil && !el.ValidAt(*f.ValidAt) {
		return false
	}
	return true
}

func (e *Engine) hit(el *models.Element) ElementHit {
	h := ElementHit{Element: *el}
	if t, ok := e.catalog.Element(el.TypeName); ok {
		h.Layer, h.Aspect = t.Layer, t.Aspect
	}
	return h
}

// correctAttributeKey swaps an attribute key that matches no dictionary entry
// for the closest defined one.
func (e *Engine) correctAttributeKey(ctx context.Context, modelID, key string) (string, string, error) {
	defs, err := e.r.ListDefinitions(ctx, modelID, models.TargetElement)
	if err != nil {
		return "", "", err
	}
	var keys []string
	for _, d := range defs {
		if d.IsTag {
			continue
		}
		if strings.EqualFold(d.Key, key) {
			return key, "", nil
		}
		keys = append(keys, d.Key)
	}
	closest := storage.ClosestKey(key, keys)
	if closest == "" {
		return key, "", nil
	}
	e.log.Debugw("Corrected attribute key", "model_id", modelID, "key", key, "using", closest)
	return closest, fmt.Sprintf("attribute key %q not found; using %q instead", key, closest), nil
}

// RelationshipFilter is a conjunction; empty fields do not filter.
type RelationshipFilter struct {
	TypeName        string
	Category        string
	SourceElementID string
	TargetElementID string
	AttributeKey    string
	AttributeValue  *string
	TagKey          string
	TagValue        *string
	Search          string // substring of id, name or type name
	ValidAt         *civil.Date
	Limit           int
}

// RelationshipHit is a relationship enriched with its metamodel category.
type RelationshipHit struct {
	models.Relationship
	Category string `json:"category,omitempty"`
	Directed *bool  `json:"directed,omitempty"`
}

// RelationshipResults is the result of SearchRelationships.
type RelationshipResults struct {
	Relationships []RelationshipHit `json:"relationships"`
	Count         int               `json:"count"`
	Truncated     bool              `json:"truncated"`
}

// SearchRelationships returns matching relationships ordered by id.
func (e *Engine) SearchRelationships(ctx context.Context, modelID string, f RelationshipFilter) (*RelationshipResults, error) {
	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}

	res := &RelationshipResults{Relationships: []RelationshipHit{}}
	limit := e.limit(f.Limit)
	for i := range snap.Relationships {
		r := &snap.Relationships[i]
		if !e.matchRelationship(r, &f) {
			continue
		}
		if len(res.Relationships) == limit {
			res.Truncated = true
			break
		}
		h := RelationshipHit{Relationship: *r}
		if t, ok := e.catalog.Relationship(r.TypeName); ok {
			h.Category = t.Category
			h.Directed = &t.Directed
		}
		res.Relationships = append(res.Relationships, h)
	}
	res.Count = len(res.Relationships)
	return res, nil
}

func (e *Engine) matchRelationship(r *models.Relationship, f *RelationshipFilter) bool {
	if f.TypeName != "" && !strings.EqualFold(r.TypeName, strings.TrimSpace(f.TypeName)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(e.catalog.CategoryOf(r.TypeName), f.Category) {
		return false
	}
	if f.SourceElementID != "" && r.SourceElementID != f.SourceElementID {
		return false
	}
	if f.TargetElementID != "" && r.TargetElementID != f.TargetElementID {
		return false
	}
	if f.AttributeKey != "" && !matchKV(r.Attributes, f.AttributeKey, f.AttributeValue) {
		return false
	}
	if f.TagKey != "" && !matchKV(r.Tags, f.TagKey, f.TagValue) {
		return false
	}
	if f.Search != "" && !containsFold(f.Search, r.ID, r.Name, r.TypeName) {
		return false
	}
	if f.ValidAt != nil && !r.ValidAt(*f.ValidAt) {
		return false
	}
	return true
}

// matchKV reports whether m holds key, and when value is set, whether the
// stored value equals it. Keys and values compare case-insensitively.
func matchKV(m map[string]string, key string, value *string) bool {
	for k, v := range m {
		if !strings.EqualFold(k, key) {
			continue
		}
		if value == nil || strings.EqualFold(v, *value) {
			return true
		}
	}
	return false
}

func containsFold(needle string, haystacks ...string) bool {
	needle = strings.ToLower(needle)
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
