package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
)

func TestUpsertRelationship(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	createModel(t, s, "M")
	addElement(t, s, "M", "E1", "Business Actor", "Alice")
	addElement(t, s, "M", "E2", "Business Process", "Order Handling")

	res, err := s.UpsertRelationship(ctx, "M", RelationshipInput{
		TypeName: "serving", SourceElementID: "E1", TargetElementID: "E2",
	}, WriteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "created", res.Status)

	r, err := s.GetRelationship(ctx, "M", res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Serving", r.TypeName)
	assert.Equal(t, res.Version, r.Version)

	t.Run("missing endpoint", func(t *testing.T) {
		_, err := s.UpsertRelationship(ctx, "M", RelationshipInput{
			TypeName: "Flow", SourceElementID: "E1", TargetElementID: "ghost",
		}, WriteOptions{})
		var re *errors.ReferenceError
		require.True(t, errors.As(err, &re), "got %v", err)
		assert.Equal(t, "target_element_id", re.Field)
		assert.Equal(t, "ghost", re.ElementID)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := s.UpsertRelationship(ctx, "M", RelationshipInput{
			TypeName: "Teleports", SourceElementID: "E1", TargetElementID: "E2",
		}, WriteOptions{})
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("required endpoints", func(t *testing.T) {
		_, err := s.UpsertRelationship(ctx, "M", RelationshipInput{TypeName: "Flow", TargetElementID: "E2"}, WriteOptions{})
		var ve *errors.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "source_element_id", ve.Field)
	})
}

func TestUpdateDanglingRelationship(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	createModel(t, s, "M")
	addElement(t, s, "M", "E1", "Business Actor", "Alice")
	addElement(t, s, "M", "E2", "Business Process", "Order Handling")
	addElement(t, s, "M", "E3", "Business Process", "Billing")
	addRelationship(t, s, "M", "R1", "Serving", "E1", "E2")

	_, err := s.DeleteElement(ctx, "M", "E1", WriteOptions{})
	require.NoError(t, err)

	// An unchanged dangling endpoint is not re-checked.
	name := "serves orders"
	_, err = s.UpdateRelationship(ctx, "M", "R1", RelationshipPatch{Name: &name}, WriteOptions{})
	require.NoError(t, err)

	// Replacing with the same endpoints is fine too.
	_, err = s.UpsertRelationship(ctx, "M", RelationshipInput{
		ID: "R1", TypeName: "Serving", Name: name, SourceElementID: "E1", TargetElementID: "E2",
	}, WriteOptions{})
	require.NoError(t, err)

	// Moving an endpoint checks the new element.
	ghost := "E9"
	_, err = s.UpdateRelationship(ctx, "M", "R1", RelationshipPatch{TargetElementID: &ghost}, WriteOptions{})
	assert.True(t, errors.Is(err, errors.ErrReference))

	target := "E3"
	res, err := s.UpdateRelationship(ctx, "M", "R1", RelationshipPatch{TargetElementID: &target}, WriteOptions{})
	require.NoError(t, err)
	r, err := s.GetRelationship(ctx, "M", "R1")
	require.NoError(t, err)
	assert.Equal(t, "E3", r.TargetElementID)
	assert.Equal(t, "serves orders", r.Name)
	assert.Equal(t, res.Version, r.Version)
}

func TestDeleteRelationship(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	createModel(t, s, "M")
	addElement(t, s, "M", "E1", "Node", "a")
	addRelationship(t, s, "M", "R1", "Association", "E1", "E1")

	_, err := s.DeleteRelationship(ctx, "M", "R1", WriteOptions{})
	require.NoError(t, err)
	_, err = s.GetRelationship(ctx, "M", "R1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = s.DeleteRelationship(ctx, "M", "R1", WriteOptions{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
