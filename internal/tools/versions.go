package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- Input types ---

type ListVersionsInput struct {
	ModelID string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of entries, newest first"`
}

type GetVersionInput struct {
	ModelID string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	Version int    `json:"version" jsonschema:"Version number"`
}

type RevertVersionInput struct {
	ModelID         string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	Version         int    `json:"version" jsonschema:"Version whose state is restored as a new version"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
	Author          string `json:"author,omitempty"`
	Message         string `json:"message,omitempty"`
}

type AcquireLockInput struct {
	ModelID string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	Owner   string `json:"owner" jsonschema:"Lock owner name"`
	Force   bool   `json:"force,omitempty" jsonschema:"Take the lock over from another owner"`
}

type ReleaseLockInput struct {
	ModelID string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
	Owner   string `json:"owner,omitempty" jsonschema:"Current owner"`
	Force   bool   `json:"force,omitempty" jsonschema:"Release a lock held by someone else"`
}

type GetLockInput struct {
	ModelID string `json:"model_id,omitempty" jsonschema:"Model id (defaults to the current model)"`
}

// --- Version handlers ---

func (t *ModelTools) ListVersions(ctx context.Context, req *mcp.CallToolRequest, input ListVersionsInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("list_versions", err)
	}
	versions, err := t.Store.ListVersions(ctx, id, input.Limit)
	if err != nil {
		return toolErr("list_versions", err)
	}
	return toolJSON(versions)
}

func (t *ModelTools) GetVersion(ctx context.Context, req *mcp.CallToolRequest, input GetVersionInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("get_version", err)
	}
	v, err := t.Store.GetVersion(ctx, id, input.Version)
	if err != nil {
		return toolErr("get_version", err)
	}
	return toolJSON(v)
}

func (t *ModelTools) RevertVersion(ctx context.Context, req *mcp.CallToolRequest, input RevertVersionInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("revert_version", err)
	}
	res, err := t.Store.RevertVersion(ctx, id, input.Version, writeOptions(input.ExpectedVersion, input.Author, input.Message))
	if err != nil {
		return toolErr("revert_version", err)
	}
	return toolJSON(res)
}

// --- Lock handlers ---

func (t *ModelTools) AcquireLock(ctx context.Context, req *mcp.CallToolRequest, input AcquireLockInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("acquire_lock", err)
	}
	st, err := t.Store.AcquireLock(ctx, id, input.Owner, input.Force)
	if err != nil {
		return toolErr("acquire_lock", err)
	}
	return toolJSON(st)
}

func (t *ModelTools) ReleaseLock(ctx context.Context, req *mcp.CallToolRequest, input ReleaseLockInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("release_lock", err)
	}
	st, err := t.Store.ReleaseLock(ctx, id, input.Owner, input.Force)
	if err != nil {
		return toolErr("release_lock", err)
	}
	return toolJSON(st)
}

func (t *ModelTools) GetLock(ctx context.Context, req *mcp.CallToolRequest, input GetLockInput) (*mcp.CallToolResult, any, error) {
	id, err := resolveModel(t.Sessions, req, input.ModelID)
	if err != nil {
		return toolErr("get_lock", err)
	}
	st, err := t.Store.GetLock(ctx, id)
	if err != nil {
		return toolErr("get_lock", err)
	}
	return toolJSON(st)
}
