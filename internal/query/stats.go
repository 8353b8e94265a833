package query

import (
	"context"
	"math"
	"sort"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

const topConnected = 10

// Counts are the headline numbers of a model.
type Counts struct {
	Elements          int `json:"elements"`
	Relationships     int `json:"relationships"`
	ElementTypes      int `json:"element_types"`
	RelationshipTypes int `json:"relationship_types"`
}

// Bucket is one row of a breakdown.
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Degree is an element's number of incident relationships.
type Degree struct {
	ElementID string `json:"element_id"`
	Name      string `json:"name"`
	Degree    int    `json:"degree"`
}

// Stats summarises a model in one pass over its snapshot.
type Stats struct {
	ModelID            string   `json:"model_id"`
	Version            int      `json:"version"`
	Counts             Counts   `json:"counts"`
	ByElementType      []Bucket `json:"by_element_type"`
	ByRelationshipType []Bucket `json:"by_relationship_type"`
	ByLayer            []Bucket `json:"by_layer"`
	ByCategory         []Bucket `json:"by_category"`
	Density            float64  `json:"density"`
	TopConnected       []Degree `json:"top_connected_elements"`
}

// Stats computes counts and breakdowns for a model.
func (e *Engine) Stats(ctx context.Context, modelID string) (*Stats, error) {
	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return e.stats(snap), nil
}

func (e *Engine) stats(snap *models.Snapshot) *Stats {
	byType := map[string]int{}
	byLayer := map[string]int{}
	degree := make(map[string]int, len(snap.Elements))
	for _, el := range snap.Elements {
		byType[el.TypeName]++
		layer := e.catalog.LayerOf(el.TypeName)
		if layer == "" {
			layer = "Unknown"
		}
		byLayer[layer]++
		degree[el.ID] = 0
	}

	byRelType := map[string]int{}
	byCategory := map[string]int{}
	for _, r := range snap.Relationships {
		byRelType[r.TypeName]++
		category := e.catalog.CategoryOf(r.TypeName)
		if category == "" {
			category = "Unknown"
		}
		byCategory[category]++
		if _, ok := degree[r.SourceElementID]; ok {
			degree[r.SourceElementID]++
		}
		if _, ok := degree[r.TargetElementID]; ok {
			degree[r.TargetElementID]++
		}
	}

	s := &Stats{
		ModelID: snap.Model.ID,
		Version: snap.Model.Version,
		Counts: Counts{
			Elements:          len(snap.Elements),
			Relationships:     len(snap.Relationships),
			ElementTypes:      len(byType),
			RelationshipTypes: len(byRelType),
		},
		ByElementType:      buckets(byType),
		ByRelationshipType: buckets(byRelType),
		ByLayer:            buckets(byLayer),
		ByCategory:         buckets(byCategory),
		TopConnected:       []Degree{},
	}
	if n := len(snap.Elements); n > 0 {
		s.Density = math.Round(float64(len(snap.Relationships))/float64(n)*1000) / 1000
	}

	for _, el := range snap.Elements {
		s.TopConnected = append(s.TopConnected, Degree{ElementID: el.ID, Name: el.Name, Degree: degree[el.ID]})
	}
	sort.SliceStable(s.TopConnected, func(i, j int) bool {
		a, b := s.TopConnected[i], s.TopConnected[j]
		if a.Degree != b.Degree {
			return a.Degree > b.Degree
		}
		return a.ElementID < b.ElementID
	})
	if len(s.TopConnected) > topConnected {
		s.TopConnected = s.TopConnected[:topConnected]
	}
	return s
}

// buckets orders by count descending, then name.
func buckets(m map[string]int) []Bucket {
	out := make([]Bucket, 0, len(m))
	for name, n := range m {
		out = append(out, Bucket{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Report combines statistics with the validation summary.
type Report struct {
	*Stats
	Validation Summary `json:"validation_summary"`
}

// Report builds the statistics and validation summary from one snapshot.
func (e *Engine) Report(ctx context.Context, modelID string) (*Report, error) {
	snap, err := e.r.LoadSnapshot(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return &Report{Stats: e.stats(snap), Validation: e.validate(snap).Summary}, nil
}

// Suggestion is one improvement hint.
type Suggestion struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Insights is the result of Insights.
type Insights struct {
	ModelID     string       `json:"model_id"`
	Count       int          `json:"insight_count"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Insights derives rule-based suggestions from the model report.
func (e *Engine) Insights(ctx context.Context, modelID string) (*Insights, error) {
	r, err := e.Report(ctx, modelID)
	if err != nil {
		return nil, err
	}

	var out []Suggestion
	add := func(kind, msg string) { out = append(out, Suggestion{Type: kind, Message: msg}) }

	if r.Counts.Elements == 0 {
		add("model_bootstrap", "The model is empty. Start by adding core business, application and technology elements.")
	}
	if r.Counts.Elements > 0 && r.Density < 0.5 {
		add("connectivity", "Relationship density is low. Add explicit dependencies (Serving, Realization, Access) to improve traceability.")
	}
	layers := map[string]bool{}
	for _, b := range r.ByLayer {
		layers[b.Name] = true
	}
	for _, layer := range []string{"Business", "Application", "Technology"} {
		if !layers[layer] {
			add("layer_coverage", "No "+layer+" layer elements detected. Consider adding them for cross-layer views.")
		}
	}
	if r.Validation.Errors > 0 {
		add("validation", "Resolve validation errors before publishing or exporting the model.")
	}
	if r.Validation.Warnings > 0 {
		add("temporal_consistency", "Temporal inconsistencies were detected. Align relationship validity windows with their source and target elements.")
	}

	if out == nil {
		out = []Suggestion{}
	}
	return &Insights{ModelID: modelID, Count: len(out), Suggestions: out}, nil
}
