package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
)

// --- Input types ---

type UpsertElementInput struct {
	ModelID         string            `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ID              string            `json:"id,omitempty" jsonschema:"Element id; a UUID is generated when empty, an existing id is replaced"`
	TypeName        string            `json:"type_name" jsonschema:"ArchiMate element type, e.g. Business Actor"`
	Name            string            `json:"name" jsonschema:"Element name"`
	Attributes      map[string]string `json:"attributes,omitempty" jsonschema:"String attributes"`
	ValidFrom       string            `json:"valid_from,omitempty" jsonschema:"Start of validity, YYYY-MM-DD"`
	ValidTo         string            `json:"valid_to,omitempty" jsonschema:"End of validity, YYYY-MM-DD"`
	ExpectedVersion *int              `json:"expected_version,omitempty" jsonschema:"Fail with VersionConflict unless the model is at this version"`
	Author          string            `json:"author,omitempty"`
	Message         string            `json:"message,omitempty"`
}

type UpdateElementInput struct {
	ModelID         string            `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ElementID       string            `json:"element_id" jsonschema:"Element to patch"`
	TypeName        *string           `json:"type_name,omitempty"`
	Name            *string           `json:"name,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty" jsonschema:"Replaces all attributes"`
	ValidFrom       string            `json:"valid_from,omitempty" jsonschema:"YYYY-MM-DD"`
	ValidTo         string            `json:"valid_to,omitempty" jsonschema:"YYYY-MM-DD"`
	ClearValidFrom  bool              `json:"clear_valid_from,omitempty" jsonschema:"Remove the lower validity bound"`
	ClearValidTo    bool              `json:"clear_valid_to,omitempty" jsonschema:"Remove the upper validity bound"`
	ExpectedVersion *int              `json:"expected_version,omitempty"`
	Author          string            `json:"author,omitempty"`
	Message         string            `json:"message,omitempty"`
}

type ElementRefInput struct {
	ModelID         string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ElementID       string `json:"element_id" jsonschema:"Element id"`
	ExpectedVersion *int   `json:"expected_version,omitempty" jsonschema:"Only used by deletes"`
	Author          string `json:"author,omitempty"`
	Message         string `json:"message,omitempty"`
}

type UpsertRelationshipInput struct {
	ModelID         string            `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ID              string            `json:"id,omitempty" jsonschema:"Relationship id; a UUID is generated when empty"`
	TypeName        string            `json:"type_name" jsonschema:"ArchiMate relationship type, e.g. Serving"`
	Name            string            `json:"name,omitempty"`
	SourceElementID string            `json:"source_element_id" jsonschema:"Existing source element"`
	TargetElementID string            `json:"target_element_id" jsonschema:"Existing target element"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	ValidFrom       string            `json:"valid_from,omitempty" jsonschema:"YYYY-MM-DD"`
	ValidTo         string            `json:"valid_to,omitempty" jsonschema:"YYYY-MM-DD"`
	ExpectedVersion *int              `json:"expected_version,omitempty"`
	Author          string            `json:"author,omitempty"`
	Message         string            `json:"message,omitempty"`
}

type UpdateRelationshipInput struct {
	ModelID         string            `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	RelationshipID  string            `json:"relationship_id" jsonschema:"Relationship to patch"`
	TypeName        *string           `json:"type_name,omitempty"`
	Name            *string           `json:"name,omitempty"`
	SourceElementID *string           `json:"source_element_id,omitempty"`
	TargetElementID *string           `json:"target_element_id,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty" jsonschema:"Replaces all attributes"`
	ValidFrom       string            `json:"valid_from,omitempty" jsonschema:"YYYY-MM-DD"`
	ValidTo         string            `json:"valid_to,omitempty" jsonschema:"YYYY-MM-DD"`
	ClearValidFrom  bool              `json:"clear_valid_from,omitempty"`
	ClearValidTo    bool              `json:"clear_valid_to,omitempty"`
	ExpectedVersion *int              `json:"expected_version,omitempty"`
	Author          string            `json:"author,omitempty"`
	Message         string            `json:"message,omitempty"`
}

type RelationshipRefInput struct {
	ModelID         string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	RelationshipID  string `json:"relationship_id" jsonschema:"Relationship id"`
	ExpectedVersion *int   `json:"expected_version,omitempty" jsonschema:"Only used by deletes"`
	Author          string `json:"author,omitempty"`
	Message         string `json:"message,omitempty"`
}

// --- Element handlers ---

func (t *ModelTools) UpsertElement(ctx context.Context, req *mcp.CallToolRequest, input UpsertElementInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("upsert_element", err)
	}
	from, err := parseDate("valid_from", input.ValidFrom)
	if err != nil {
		return toolErr("upsert_element", err)
	}
	to, err := parseDate("valid_to", input.ValidTo)
	if err != nil {
		return toolErr("upsert_element", err)
	}

	res, err := t.Store.UpsertElement(ctx, id, storage.ElementInput{
		ID:         input.ID,
		TypeName:   input.TypeName,
		Name:       input.Name,
		Attributes: input.Attributes,
		ValidFrom:  from,
		ValidTo:    to,
	}, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("upsert_element", err)
	}
	return toolJSON(res)
}

func (t *ModelTools) UpdateElement(ctx context.Context, req *mcp.CallToolRequest, input UpdateElementInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("update_element", err)
	}
	from, err := parseDate("valid_from", input.ValidFrom)
	if err != nil {
		return toolErr("update_element", err)
	}
	to, err := parseDate("valid_to", input.ValidTo)
	if err != nil {
		return toolErr("update_element", err)
	}

	res, err := t.Store.UpdateElement(ctx, id, input.ElementID, storage.ElementPatch{
		TypeName:       input.TypeName,
		Name:           input.Name,
		Attributes:     input.Attributes,
		ValidFrom:      from,
		ValidTo:        to,
		ClearValidFrom: input.ClearValidFrom,
		ClearValidTo:   input.ClearValidTo,
	}, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("update_element", err)
	}
	return toolJSON(res)
}

func (t *ModelTools) DeleteElement(ctx context.Context, req *mcp.CallToolRequest, input ElementRefInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("delete_element", err)
	}
	res, err := t.Store.DeleteElement(ctx, id, input.ElementID, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("delete_element", err)
	}
	return toolJSON(res)
}

func (t *ModelTools) GetElement(ctx context.Context, req *mcp.CallToolRequest, input ElementRefInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("get_element", err)
	}
	e, err := t.Store.GetElement(ctx, id, input.ElementID)
	if err != nil {
		return toolErr("get_element", err)
	}
	return toolJSON(e)
}

// --- Relationship handlers ---

func (t *ModelTools) UpsertRelationship(ctx context.Context, req *mcp.CallToolRequest, input UpsertRelationshipInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("upsert_relationship", err)
	}
	from, err := parseDate("valid_from", input.ValidFrom)
	if err != nil {
		return toolErr("upsert_relationship", err)
	}
	to, err := parseDate("valid_to", input.ValidTo)
	if err != nil {
		return toolErr("upsert_relationship", err)
	}

	res, err := t.Store.UpsertRelationship(ctx, id, storage.RelationshipInput{
		ID:              input.ID,
		TypeName:        input.TypeName,
		Name:            input.Name,
		SourceElementID: input.SourceElementID,
		TargetElementID: input.TargetElementID,
		Attributes:      input.Attributes,
		ValidFrom:       from,
		ValidTo:         to,
	}, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("upsert_relationship", err)
	}
	return toolJSON(res)
}

func (t *ModelTools) UpdateRelationship(ctx context.Context, req *mcp.CallToolRequest, input UpdateRelationshipInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("update_relationship", err)
	}
	from, err := parseDate("valid_from", input.ValidFrom)
	if err != nil {
		return toolErr("update_relationship", err)
	}
	to, err := parseDate("valid_to", input.ValidTo)
	if err != nil {
		return toolErr("update_relationship", err)
	}

	res, err := t.Store.UpdateRelationship(ctx, id, input.RelationshipID, storage.RelationshipPatch{
		TypeName:        input.TypeName,
		Name:            input.Name,
		SourceElementID: input.SourceElementID,
		TargetElementID: input.TargetElementID,
		Attributes:      input.Attributes,
		ValidFrom:       from,
		ValidTo:         to,
		ClearValidFrom:  input.ClearValidFrom,
		ClearValidTo:    input.ClearValidTo,
	}, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("update_relationship", err)
	}
	return toolJSON(res)
}

func (t *ModelTools) DeleteRelationship(ctx context.Context, req *mcp.CallToolRequest, input RelationshipRefInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("delete_relationship", err)
	}
	res, err := t.Store.DeleteRelationship(ctx, id, input.RelationshipID, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("delete_relationship", err)
	}
	return toolJSON(res)
}

func (t *ModelTools) GetRelationship(ctx context.Context, req *mcp.CallToolRequest, input RelationshipRefInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("get_relationship", err)
	}
	r, err := t.Store.GetRelationship(ctx, id, input.RelationshipID)
	if err != nil {
		return toolErr("get_relationship", err)
	}
	return toolJSON(r)
}
