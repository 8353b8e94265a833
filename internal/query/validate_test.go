package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

func codes(v *Validation) []string {
	out := []string{}
	for _, is := range v.Issues {
		out = append(out, is.Code)
	}
	return out
}

func TestValidateCleanModel(t *testing.T) {
	e := setupEngine(t, servingModel())
	v, err := e.Validate(context.Background(), "M")
	require.NoError(t, err)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Issues)
	assert.Equal(t, "Model M", v.ModelName)
}

func TestValidateFindings(t *testing.T) {
	src := el("S", "Node", "src")
	src.ValidFrom = day("2024-01-01")
	src.ValidTo = day("2024-12-31")
	tgt := el("T", "Node", "tgt")
	tgt.ValidFrom = day("2024-03-01")
	tgt.ValidTo = day("2024-06-30")
	bad := el("X", "Widget", "bad")
	bad.ValidFrom = day("2025-01-01")
	bad.ValidTo = day("2024-01-01")

	early := rel("R1", "Flow", "S", "T")
	early.ValidFrom = day("2023-06-01")
	late := rel("R2", "Flow", "S", "T")
	late.ValidFrom = day("2024-04-01")
	late.ValidTo = day("2025-06-01")
	dangling := rel("R3", "Bogus", "S", "gone")
	inverted := rel("R4", "Flow", "S", "T")
	inverted.ValidFrom = day("2024-05-01")
	inverted.ValidTo = day("2024-04-01")

	e := setupEngine(t, &models.Snapshot{
		Elements:      []models.Element{src, tgt, bad},
		Relationships: []models.Relationship{early, late, dangling, inverted},
	})

	v, err := e.Validate(context.Background(), "M")
	require.NoError(t, err)
	assert.False(t, v.IsValid)
	assert.Equal(t, []string{
		CodeUnknownElementType,
		CodeInvalidElementTimeRange,
		CodeRelBeforeSource,
		CodeRelBeforeTarget,
		CodeRelAfterSource,
		CodeRelAfterTarget,
		CodeUnknownRelationshipType,
		CodeMissingRelEndpoint,
		CodeInvalidRelTimeRange,
	}, codes(v))
	assert.Equal(t, Summary{Elements: 3, Relationships: 4, Errors: 5, Warnings: 4}, v.Summary)
	assert.Equal(t, "X", v.Issues[0].ElementID)
	assert.Equal(t, "R1", v.Issues[2].RelationshipID)
}
