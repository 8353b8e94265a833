package query

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/metamodel"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

type fakeReader struct {
	snaps map[string]*models.Snapshot
	defs  map[string][]models.AttributeDefinition
}

func (f *fakeReader) LoadSnapshot(_ context.Context, modelID string) (*models.Snapshot, error) {
	s, ok := f.snaps[modelID]
	if !ok {
		return nil, errors.NotFound("model", modelID)
	}
	s.Sort()
	return s, nil
}

func (f *fakeReader) ListDefinitions(_ context.Context, modelID, targetType string) ([]models.AttributeDefinition, error) {
	var out []models.AttributeDefinition
	for _, d := range f.defs[modelID] {
		if d.TargetType == targetType {
			out = append(out, d)
		}
	}
	return out, nil
}

func day(s string) *civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func el(id, typeName, name string) models.Element {
	return models.Element{ID: id, ModelID: "M", TypeName: typeName, Name: name,
		Attributes: map[string]string{}, Tags: map[string]string{}}
}

func rel(id, typeName, source, target string) models.Relationship {
	return models.Relationship{ID: id, ModelID: "M", TypeName: typeName, SourceElementID: source, TargetElementID: target,
		Attributes: map[string]string{}, Tags: map[string]string{}}
}

func setupEngine(t *testing.T, snap *models.Snapshot, defs ...models.AttributeDefinition) *Engine {
	t.Helper()
	if snap.Model.ID == "" {
		snap.Model = models.Model{ID: "M", Name: "Model M", Version: 1}
	}
	r := &fakeReader{
		snaps: map[string]*models.Snapshot{snap.Model.ID: snap},
		defs:  map[string][]models.AttributeDefinition{snap.Model.ID: defs},
	}
	return New(r, metamodel.Default(), Options{Logger: zaptest.NewLogger(t).Sugar()})
}

// servingModel is E1 (Business Actor) serving E2 (Business Process).
func servingModel() *models.Snapshot {
	return &models.Snapshot{
		Elements: []models.Element{
			el("E1", "Business Actor", "Alice"),
			el("E2", "Business Process", "Order Handling"),
		},
		Relationships: []models.Relationship{rel("R1", "Serving", "E1", "E2")},
	}
}

func TestServingExample(t *testing.T) {
	e := setupEngine(t, servingModel())
	ctx := context.Background()

	stats, err := e.Stats(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Counts.Elements)
	assert.Equal(t, 1, stats.Counts.Relationships)

	nb, err := e.Neighbors(ctx, "M", "E1", DirectionOut, "", 0)
	require.NoError(t, err)
	require.Len(t, nb.Neighbors, 1)
	assert.Equal(t, "E2", nb.Neighbors[0].ID)
	require.Len(t, nb.Relationships, 1)
	assert.Equal(t, "Serving", nb.Relationships[0].TypeName)

	p, err := e.PathExists(ctx, "M", "E1", "E2", nil)
	require.NoError(t, err)
	assert.True(t, p.Exists)

	p, err = e.PathExists(ctx, "M", "E2", "E1", nil)
	require.NoError(t, err)
	assert.False(t, p.Exists)
	assert.Nil(t, p.Depth)
}

func TestEngineUnknownModel(t *testing.T) {
	e := setupEngine(t, servingModel())
	_, err := e.Stats(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
