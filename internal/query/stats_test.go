package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

func elementID(e models.Element) string           { return e.ID }
func relationshipID(r models.Relationship) string { return r.ID }

func TestStatsBreakdowns(t *testing.T) {
	snap := servingModel()
	snap.Elements = append(snap.Elements, el("E3", "Business Actor", "Bob"), el("E4", "Widget", "?"))
	snap.Relationships = append(snap.Relationships,
		rel("R2", "Serving", "E3", "E2"),
		rel("R3", "Composition", "E2", "gone"),
	)
	e := setupEngine(t, snap)

	s, err := e.Stats(context.Background(), "M")
	require.NoError(t, err)
	assert.Equal(t, Counts{Elements: 4, Relationships: 3, ElementTypes: 3, RelationshipTypes: 2}, s.Counts)
	assert.Equal(t, []Bucket{{"Business Actor", 2}, {"Business Process", 1}, {"Widget", 1}}, s.ByElementType)
	assert.Equal(t, []Bucket{{"Serving", 2}, {"Composition", 1}}, s.ByRelationshipType)
	assert.Equal(t, []Bucket{{"Business", 3}, {"Unknown", 1}}, s.ByLayer)
	assert.Equal(t, []Bucket{{"Dependency", 2}, {"Structural", 1}}, s.ByCategory)
	assert.Equal(t, 0.75, s.Density)

	require.Len(t, s.TopConnected, 4)
	assert.Equal(t, Degree{ElementID: "E2", Name: "Order Handling", Degree: 3}, s.TopConnected[0])
	assert.Equal(t, "E1", s.TopConnected[1].ElementID)
	assert.Equal(t, "E3", s.TopConnected[2].ElementID)
	assert.Equal(t, 0, s.TopConnected[3].Degree)
}

func TestStatsEmptyModel(t *testing.T) {
	e := setupEngine(t, &models.Snapshot{})
	s, err := e.Stats(context.Background(), "M")
	require.NoError(t, err)
	assert.Zero(t, s.Density)
	assert.Empty(t, s.TopConnected)
}

func TestInsights(t *testing.T) {
	e := setupEngine(t, &models.Snapshot{})
	in, err := e.Insights(context.Background(), "M")
	require.NoError(t, err)

	var kinds []string
	for _, s := range in.Suggestions {
		kinds = append(kinds, s.Type)
	}
	assert.Equal(t, []string{"model_bootstrap", "layer_coverage", "layer_coverage", "layer_coverage"}, kinds)
	assert.Equal(t, 4, in.Count)

	snap := servingModel()
	snap.Relationships = append(snap.Relationships, rel("R9", "Flow", "E1", "missing"))
	e = setupEngine(t, snap)
	in, err = e.Insights(context.Background(), "M")
	require.NoError(t, err)
	kinds = nil
	for _, s := range in.Suggestions {
		kinds = append(kinds, s.Type)
	}
	assert.Contains(t, kinds, "validation")
	assert.NotContains(t, kinds, "connectivity")
	assert.NotContains(t, kinds, "model_bootstrap")
}

func TestReport(t *testing.T) {
	e := setupEngine(t, servingModel())
	r, err := e.Report(context.Background(), "M")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Counts.Elements)
	assert.Equal(t, Summary{Elements: 2, Relationships: 1}, r.Validation)
}
