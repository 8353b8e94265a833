package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/session"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
)

// ModelTools holds what the model lifecycle and mutation handlers need.
type ModelTools struct {
	Store    *storage.Store
	Sessions *session.Registry
}

// --- Input types ---

type CreateModelInput struct {
	ID          string            `json:"id,omitempty" jsonschema:"Optional model id; a UUID is generated when empty"`
	Name        string            `json:"name" jsonschema:"Model name"`
	Description string            `json:"description,omitempty" jsonschema:"Optional description"`
	Attributes  map[string]string `json:"attributes,omitempty" jsonschema:"Optional string attributes"`
	Author      string            `json:"author,omitempty" jsonschema:"Author recorded on version 1"`
	Message     string            `json:"message,omitempty" jsonschema:"Message recorded on version 1"`
}

type GetModelInput struct {
	ModelID      string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	IncludeGraph bool   `json:"include_graph,omitempty" jsonschema:"Include all elements and relationships"`
}

type UpdateModelInput struct {
	ModelID         string            `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	Name            *string           `json:"name,omitempty" jsonschema:"New name"`
	Description     *string           `json:"description,omitempty" jsonschema:"New description"`
	Attributes      map[string]string `json:"attributes,omitempty" jsonschema:"Replaces all model attributes"`
	ExpectedVersion *int              `json:"expected_version,omitempty" jsonschema:"Fail with VersionConflict unless the model is at this version"`
	Author          string            `json:"author,omitempty" jsonschema:"Author recorded on the version"`
	Message         string            `json:"message,omitempty" jsonschema:"Message recorded on the version"`
}

type DeleteModelInput struct {
	ModelID string `json:"model_id" jsonschema:"Id of the model to delete permanently"`
}

type ListModelsInput struct {
	Search string `json:"search,omitempty" jsonschema:"Substring of name or description"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of models"`
}

type SetCurrentModelInput struct {
	ModelID string `json:"model_id" jsonschema:"Model to use when later calls omit model_id"`
}

// ModelGraph is a model with its full graph.
type ModelGraph struct {
	models.Model
	Elements      []models.Element      `json:"elements"`
	Relationships []models.Relationship `json:"relationships"`
}

// --- Handlers ---

func (t *ModelTools) CreateModel(ctx context.Context, req *mcp.CallToolRequest, input CreateModelInput) (*mcp.CallToolResult, any, error) {
	m, err := t.Store.CreateModel(ctx, storage.CreateModelInput{
		ID:          input.ID,
		Name:        input.Name,
		Description: input.Description,
		Attributes:  input.Attributes,
	}, input.Author, input.Message)
	if err != nil {
		return toolErr("create_model", err)
	}

	// Auto-select the new model
	t.Sessions.Set(sessionID(req), m.ID)
	return toolJSON(m)
}

func (t *ModelTools) GetModel(ctx context.Context, req *mcp.CallToolRequest, input GetModelInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("get_model", err)
	}
	if !input.IncludeGraph {
		m, err := t.Store.GetModel(ctx, id)
		if err != nil {
			return toolErr("get_model", err)
		}
		return toolJSON(m)
	}

	snap, err := t.Store.LoadSnapshot(ctx, id)
	if err != nil {
		return toolErr("get_model", err)
	}
	return toolJSON(ModelGraph{Model: snap.Model, Elements: snap.Elements, Relationships: snap.Relationships})
}

func (t *ModelTools) UpdateModel(ctx context.Context, req *mcp.CallToolRequest, input UpdateModelInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("update_model", err)
	}
	m, err := t.Store.UpdateModel(ctx, id, storage.ModelPatch{
		Name:        input.Name,
		Description: input.Description,
		Attributes:  input.Attributes,
	}, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("update_model", err)
	}
	return toolJSON(m)
}

func (t *ModelTools) DeleteModel(ctx context.Context, _ *mcp.CallToolRequest, input DeleteModelInput) (*mcp.CallToolResult, any, error) {
	if err := t.Store.DeleteModel(ctx, input.ModelID); err != nil {
		return toolErr("delete_model", err)
	}
	t.Sessions.Forget(input.ModelID)
	return toolText(fmt.Sprintf("Model %q permanently deleted.", input.ModelID)), nil, nil
}

func (t *ModelTools) ListModels(ctx context.Context, _ *mcp.CallToolRequest, input ListModelsInput) (*mcp.CallToolResult, any, error) {
	list, err := t.Store.ListModels(ctx, input.Search, input.Limit)
	if err != nil {
		return toolErr("list_models", err)
	}
	return toolJSON(list)
}

func (t *ModelTools) SetCurrentModel(ctx context.Context, req *mcp.CallToolRequest, input SetCurrentModelInput) (*mcp.CallToolResult, any, error) {
	m, err := t.Store.GetModel(ctx, input.ModelID)
	if err != nil {
		return toolErr("set_current_model", err)
	}
	t.Sessions.Set(sessionID(req), m.ID)
	return toolJSON(m)
}

func (t *ModelTools) GetCurrentModel(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	id, ok := t.Sessions.Current(sessionID(req))
	if !ok {
		return toolText("No model is currently selected. Use set_current_model to select one."), nil, nil
	}
	m, err := t.Store.GetModel(ctx, id)
	if err != nil {
		return toolErr("get_current_model", err)
	}
	return toolJSON(m)
}
