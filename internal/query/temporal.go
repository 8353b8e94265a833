package query

import (
	"context"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// Slice is the model as of one date.
type Slice struct {
	ModelID       string                `json:"model_id"`
	ValidAt       civil.Date            `json:"valid_at"`
	Layer         string                `json:"layer,omitempty"`
	Elements      []models.Element      `json:"elements"`
	Relationships []models.Relationship `json:"relationships"`
	Truncated     bool                  `json:"truncated"`
}

// TemporalSlice returns the elements and relationships valid at the given
// date. With a layer, elements are restricted to that layer and relationships
// to those touching a sliced element.
func (e *Engine) TemporalSlice(ctx context.Context, modelID string, at civil.Date, layer string) (*Slice, error) {
	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}
	layer = strings.TrimSpace(layer)

	s := &Slice{
		ModelID:       modelID,
		ValidAt:       at,
		Layer:         layer,
		Elements:      []models.Element{},
		Relationships: []models.Relationship{},
	}
	in := make(map[string]bool)
	for _, el := range snap.Elements {
		if !el.ValidAt(at) {
			continue
		}
		if layer != "" && !strings.EqualFold(e.catalog.LayerOf(el.TypeName), layer) {
			continue
		}
		if len(s.Elements) == e.opts.SliceLimit {
			s.Truncated = true
			break
		}
		s.Elements = append(s.Elements, el)
		in[el.ID] = true
	}

	for _, r := range snap.Relationships {
		if !r.ValidAt(at) {
			continue
		}
		if layer != "" && !in[r.SourceElementID] && !in[r.TargetElementID] {
			continue
		}
		if len(s.Relationships) == e.opts.SliceLimit {
			s.Truncated = true
			break
		}
		s.Relationships = append(s.Relationships, r)
	}
	return s, nil
}
