package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/query"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/session"
)

// QueryTools holds what the read-side graph handlers need.
type QueryTools struct {
	Engine   *query.Engine
	Sessions *session.Registry
}

// --- Input types ---

type SearchElementsInput struct {
	ModelID        string  `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	TypeName       string  `json:"type_name,omitempty" jsonschema:"Element type, case-insensitive"`
	Layer          string  `json:"layer,omitempty" jsonschema:"Metamodel layer, e.g. Business"`
	Aspect         string  `json:"aspect,omitempty" jsonschema:"Metamodel aspect, e.g. Behavior"`
	AttributeKey   string  `json:"attribute_key,omitempty" jsonschema:"Element must have this attribute; close misspellings of defined keys are corrected"`
	AttributeValue *string `json:"attribute_value,omitempty" jsonschema:"Attribute value, case-insensitive"`
	TagKey         string  `json:"tag_key,omitempty"`
	TagValue       *string `json:"tag_value,omitempty"`
	Search         string  `json:"search,omitempty" jsonschema:"Substring of id, name or type"`
	ValidAt        string  `json:"valid_at,omitempty" jsonschema:"Only elements valid on this date, YYYY-MM-DD"`
	Limit          int     `json:"limit,omitempty"`
}

type SearchRelationshipsInput struct {
	ModelID         string  `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	TypeName        string  `json:"type_name,omitempty"`
	Category        string  `json:"category,omitempty" jsonschema:"Structural, Dependency, Dynamic or Other"`
	SourceElementID string  `json:"source_element_id,omitempty"`
	TargetElementID string  `json:"target_element_id,omitempty"`
	AttributeKey    string  `json:"attribute_key,omitempty"`
	AttributeValue  *string `json:"attribute_value,omitempty"`
	TagKey          string  `json:"tag_key,omitempty"`
	TagValue        *string `json:"tag_value,omitempty"`
	Search          string  `json:"search,omitempty"`
	ValidAt         string  `json:"valid_at,omitempty" jsonschema:"YYYY-MM-DD"`
	Limit           int     `json:"limit,omitempty"`
}

type NeighborsInput struct {
	ModelID          string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ElementID        string `json:"element_id" jsonschema:"Element to expand"`
	Direction        string `json:"direction,omitempty" jsonschema:"in, out or both (default)"`
	RelationshipType string `json:"relationship_type,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

type PathExistsInput struct {
	ModelID         string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	SourceElementID string `json:"source_element_id"`
	TargetElementID string `json:"target_element_id"`
	MaxDepth        *int   `json:"max_depth,omitempty" jsonschema:"Maximum number of hops; omit for no limit"`
}

type TemporalSliceInput struct {
	ModelID string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	ValidAt string `json:"valid_at" jsonschema:"Date of the slice, YYYY-MM-DD"`
	Layer   string `json:"layer,omitempty" jsonschema:"Restrict to one metamodel layer"`
}

type ModelInput struct {
	ModelID string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
}

// --- Handlers ---

func (t *QueryTools) SearchElements(ctx context.Context, req *mcp.CallToolRequest, input SearchElementsInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("search_elements", err)
	}
	at, err := parseDate("valid_at", input.ValidAt)
	if err != nil {
		return toolErr("search_elements", err)
	}
	res, err := t.Engine.SearchElements(ctx, id, query.ElementFilter{
		TypeName:       input.TypeName,
		Layer:          input.Layer,
		Aspect:         input.Aspect,
		AttributeKey:   input.AttributeKey,
		AttributeValue: input.AttributeValue,
		TagKey:         input.TagKey,
		TagValue:       input.TagValue,
		Search:         input.Search,
		ValidAt:        at,
		Limit:          input.Limit,
	})
	if err != nil {
		return toolErr("search_elements", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) SearchRelationships(ctx context.Context, req *mcp.CallToolRequest, input SearchRelationshipsInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("search_relationships", err)
	}
	at, err := parseDate("valid_at", input.ValidAt)
	if err != nil {
		return toolErr("search_relationships", err)
	}
	res, err := t.Engine.SearchRelationships(ctx, id, query.RelationshipFilter{
		TypeName:        input.TypeName,
		Category:        input.Category,
		SourceElementID: input.SourceElementID,
		TargetElementID: input.TargetElementID,
		AttributeKey:    input.AttributeKey,
		AttributeValue:  input.AttributeValue,
		TagKey:          input.TagKey,
		TagValue:        input.TagValue,
		Search:          input.Search,
		ValidAt:         at,
		Limit:           input.Limit,
	})
	if err != nil {
		return toolErr("search_relationships", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) Neighbors(ctx context.Context, req *mcp.CallToolRequest, input NeighborsInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("neighbors", err)
	}
	res, err := t.Engine.Neighbors(ctx, id, input.ElementID, input.Direction, input.RelationshipType, input.Limit)
	if err != nil {
		return toolErr("neighbors", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) PathExists(ctx context.Context, req *mcp.CallToolRequest, input PathExistsInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("path_exists", err)
	}
	res, err := t.Engine.PathExists(ctx, id, input.SourceElementID, input.TargetElementID, input.MaxDepth)
	if err != nil {
		return toolErr("path_exists", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) TemporalSlice(ctx context.Context, req *mcp.CallToolRequest, input TemporalSliceInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("temporal_slice", err)
	}
	at, err := parseDate("valid_at", input.ValidAt)
	if err != nil {
		return toolErr("temporal_slice", err)
	}
	if at == nil {
		return toolErr("temporal_slice", errors.Required("valid_at"))
	}
	res, err := t.Engine.TemporalSlice(ctx, id, *at, input.Layer)
	if err != nil {
		return toolErr("temporal_slice", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) ModelStats(ctx context.Context, req *mcp.CallToolRequest, input ModelInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("model_stats", err)
	}
	res, err := t.Engine.Stats(ctx, id)
	if err != nil {
		return toolErr("model_stats", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) ValidateModel(ctx context.Context, req *mcp.CallToolRequest, input ModelInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("validate_model", err)
	}
	res, err := t.Engine.Validate(ctx, id)
	if err != nil {
		return toolErr("validate_model", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) ModelReport(ctx context.Context, req *mcp.CallToolRequest, input ModelInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("model_report", err)
	}
	res, err := t.Engine.Report(ctx, id)
	if err != nil {
		return toolErr("model_report", err)
	}
	return toolJSON(res)
}

func (t *QueryTools) ModelInsights(ctx context.Context, req *mcp.CallToolRequest, input ModelInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("model_insights", err)
	}
	res, err := t.Engine.Insights(ctx, id)
	if err != nil {
		return toolErr("model_insights", err)
	}
	return toolJSON(res)
}
