package history

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

func sampleSnapshot() *models.Snapshot {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	from := civil.Date{Year: 2024, Month: time.January, Day: 1}
	return &models.Snapshot{
		Model: models.Model{
			ID: "M", Name: "Retail", Description: "Retail landscape",
			Attributes: map[string]string{"owner": "EA team"},
			Version:    3, CreatedAt: ts, UpdatedAt: ts,
		},
		Elements: []models.Element{
			{ID: "E1", ModelID: "M", TypeName: "Business Actor", Name: "Alice",
				Attributes: map[string]string{}, Tags: map[string]string{"priority": "high"},
				ValidFrom: &from, Version: 2, CreatedAt: ts, UpdatedAt: ts},
			{ID: "E2", ModelID: "M", TypeName: "Business Process", Name: "Order Handling",
				Attributes: map[string]string{}, Tags: map[string]string{},
				Version: 3, CreatedAt: ts, UpdatedAt: ts},
		},
		Relationships: []models.Relationship{
			{ID: "R1", ModelID: "M", TypeName: "Serving", SourceElementID: "E1", TargetElementID: "E2",
				Attributes: map[string]string{}, Tags: map[string]string{},
				Version: 3, CreatedAt: ts, UpdatedAt: ts},
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	in := sampleSnapshot()

	data, err := Encode(in)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	out, err := Decode(data)
	require.NoError(t, err)

	d := Diff(in, out)
	assert.True(t, d.Empty(), "decoded snapshot must equal the original: %+v", d)
	assert.Equal(t, in.Model.ID, out.Model.ID)
	require.NotNil(t, out.Elements[0].ValidFrom)
	assert.Equal(t, "2024-01-01", out.Elements[0].ValidFrom.String())
	assert.Nil(t, out.Elements[1].ValidFrom)
	assert.Equal(t, time.UTC, out.Model.CreatedAt.Location())
}

func TestNormalizeOrdersByID(t *testing.T) {
	s := sampleSnapshot()
	s.Elements[0], s.Elements[1] = s.Elements[1], s.Elements[0]
	s.Relationships = append(s.Relationships, models.Relationship{ID: "R0", SourceElementID: "E2", TargetElementID: "E1"})

	Normalize(s)

	assert.Equal(t, "E1", s.Elements[0].ID)
	assert.Equal(t, "E2", s.Elements[1].ID)
	assert.Equal(t, "R0", s.Relationships[0].ID)
	assert.NotNil(t, s.Relationships[0].Tags)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not a snapshot"))
	require.Error(t, err)
}

func TestNormalizeFillsNilMaps(t *testing.T) {
	s := &models.Snapshot{Elements: []models.Element{{ID: "E1"}}}
	Normalize(s)
	assert.NotNil(t, s.Model.Attributes)
	assert.NotNil(t, s.Elements[0].Tags)
	assert.NotNil(t, s.Relationships)
}

func TestDiff(t *testing.T) {
	target := sampleSnapshot()

	t.Run("identical", func(t *testing.T) {
		d := Diff(sampleSnapshot(), target)
		assert.True(t, d.Empty())
	})

	t.Run("added and removed entities", func(t *testing.T) {
		cur := sampleSnapshot()
		cur.Elements = append(cur.Elements[:1], models.Element{ID: "E3", Name: "Extra"})
		cur.Relationships = nil

		d := Diff(cur, target)
		require.Len(t, d.PutElements, 1)
		assert.Equal(t, "E2", d.PutElements[0].ID)
		assert.Equal(t, []string{"E3"}, d.DeleteElements)
		require.Len(t, d.PutRelationships, 1)
		assert.Equal(t, "R1", d.PutRelationships[0].ID)
		assert.Empty(t, d.DeleteRelationships)
		assert.Nil(t, d.Model)
	})

	t.Run("changed tags and model fields", func(t *testing.T) {
		cur := sampleSnapshot()
		cur.Model.Name = "Renamed"
		cur.Elements[0].Tags = map[string]string{}

		d := Diff(cur, target)
		require.NotNil(t, d.Model)
		assert.Equal(t, "Retail", d.Model.Name)
		require.Len(t, d.PutElements, 1)
		assert.Equal(t, "high", d.PutElements[0].Tags["priority"])
	})

	t.Run("changed endpoint", func(t *testing.T) {
		cur := sampleSnapshot()
		cur.Relationships[0].TargetElementID = "E1"

		d := Diff(cur, target)
		require.Len(t, d.PutRelationships, 1)
		assert.Equal(t, "E2", d.PutRelationships[0].TargetElementID)
	})
}
