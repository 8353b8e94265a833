package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
)

// --- Input types ---

type AddTagInput struct {
	ModelID         string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ElementID       string `json:"element_id,omitempty" jsonschema:"Tag this element (exclusive with relationship_id)"`
	RelationshipID  string `json:"relationship_id,omitempty" jsonschema:"Tag this relationship (exclusive with element_id)"`
	Key             string `json:"key" jsonschema:"Tag key; must be defined with define_attribute(is_tag=true)"`
	Value           string `json:"value,omitempty" jsonschema:"Tag value"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
	Author          string `json:"author,omitempty"`
	Message         string `json:"message,omitempty"`
}

type RemoveTagInput struct {
	ModelID         string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ElementID       string `json:"element_id,omitempty"`
	RelationshipID  string `json:"relationship_id,omitempty"`
	Key             string `json:"key" jsonschema:"Tag key to remove; an absent key is not an error"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
	Author          string `json:"author,omitempty"`
	Message         string `json:"message,omitempty"`
}

type DefineAttributeInput struct {
	ModelID     string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	TargetType  string `json:"target_type" jsonschema:"element or relationship"`
	Key         string `json:"key" jsonschema:"Attribute or tag key"`
	Description string `json:"description,omitempty"`
	IsTag       bool   `json:"is_tag,omitempty" jsonschema:"Register the key for use with add_tag"`
}

type ListAttributesInput struct {
	ModelID    string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	TargetType string `json:"target_type,omitempty" jsonschema:"element or relationship; empty lists both"`
}

type DeleteAttributeInput struct {
	ModelID    string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	TargetType string `json:"target_type" jsonschema:"element or relationship"`
	Key        string `json:"key"`
}

// --- Tag handlers ---

func (t *ModelTools) AddTag(ctx context.Context, req *mcp.CallToolRequest, input AddTagInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("add_tag", err)
	}
	res, err := t.Store.AddTag(ctx, id, storage.TagTarget{ElementID: input.ElementID, RelationshipID: input.RelationshipID},
		input.Key, input.Value, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("add_tag", err)
	}
	return toolJSON(res)
}

func (t *ModelTools) RemoveTag(ctx context.Context, req *mcp.CallToolRequest, input RemoveTagInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("remove_tag", err)
	}
	res, err := t.Store.RemoveTag(ctx, id, storage.TagTarget{ElementID: input.ElementID, RelationshipID: input.RelationshipID},
		input.Key, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("remove_tag", err)
	}
	return toolJSON(res)
}

// --- Dictionary handlers ---

func (t *ModelTools) DefineAttribute(ctx context.Context, req *mcp.CallToolRequest, input DefineAttributeInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("define_attribute", err)
	}
	def, err := t.Store.DefineAttribute(ctx, models.AttributeDefinition{
		ModelID:     id,
		TargetType:  input.TargetType,
		Key:         input.Key,
		Description: input.Description,
		IsTag:       input.IsTag,
	})
	if err != nil {
		return toolErr("define_attribute", err)
	}
	return toolJSON(def)
}

func (t *ModelTools) ListAttributes(ctx context.Context, req *mcp.CallToolRequest, input ListAttributesInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("list_attributes", err)
	}
	defs, err := t.Store.ListDefinitions(ctx, id, input.TargetType)
	if err != nil {
		return toolErr("list_attributes", err)
	}
	return toolJSON(defs)
}

func (t *ModelTools) ListTags(ctx context.Context, req *mcp.CallToolRequest, input ListAttributesInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("list_tags", err)
	}
	defs, err := t.Store.ListTags(ctx, id, input.TargetType)
	if err != nil {
		return toolErr("list_tags", err)
	}
	return toolJSON(defs)
}

func (t *ModelTools) DeleteAttribute(ctx context.Context, req *mcp.CallToolRequest, input DeleteAttributeInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("delete_attribute", err)
	}
	if err := t.Store.DeleteDefinition(ctx, id, input.TargetType, input.Key); err != nil {
		return toolErr("delete_attribute", err)
	}
	return toolJSON(map[string]string{"status": "deleted", "target_type": input.TargetType, "key": input.Key})
}
