package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemporalSlice(t *testing.T) {
	e := setupEngine(t, searchModel())
	ctx := context.Background()

	s, err := e.TemporalSlice(ctx, "M", *day("2024-06-01"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2"}, ids(s.Elements, elementID))
	assert.Equal(t, []string{"R1"}, ids(s.Relationships, relationshipID))
	assert.False(t, s.Truncated)

	s, err = e.TemporalSlice(ctx, "M", *day("2025-06-01"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E3"}, ids(s.Elements, elementID))
	// R1 is open-ended even though its source has expired.
	assert.Equal(t, []string{"R1"}, ids(s.Relationships, relationshipID))
}

func TestTemporalSliceByLayer(t *testing.T) {
	e := setupEngine(t, searchModel())
	ctx := context.Background()

	s, err := e.TemporalSlice(ctx, "M", *day("2024-06-01"), "Technology")
	require.NoError(t, err)
	assert.Empty(t, s.Elements)
	assert.Empty(t, s.Relationships)

	s, err = e.TemporalSlice(ctx, "M", *day("2024-06-01"), "business")
	require.NoError(t, err)
	assert.Equal(t, []string{"E1"}, ids(s.Elements, elementID))
	assert.Equal(t, []string{"R1"}, ids(s.Relationships, relationshipID))
}

func TestTemporalSliceLimit(t *testing.T) {
	e := setupEngine(t, searchModel())
	e.opts.SliceLimit = 1

	s, err := e.TemporalSlice(context.Background(), "M", *day("2024-06-01"), "")
	require.NoError(t, err)
	assert.Len(t, s.Elements, 1)
	assert.True(t, s.Truncated)
}
