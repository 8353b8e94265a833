// Package server assembles the MCP server and its HTTP surface.
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/query"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/session"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/tools"
)

// Version is reported in the MCP handshake.
var Version = "0.1.0"

// New creates a fully configured MCP server with all tools registered.
func New(store *storage.Store, engine *query.Engine) *mcp.Server {
	return newServer(store, engine, session.New())
}

func newServer(store *storage.Store, engine *query.Engine, sessions *session.Registry) *mcp.Server {
	mt := &tools.ModelTools{Store: store, Sessions: sessions}
	qt := &tools.QueryTools{Engine: engine, Sessions: sessions}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "archimodel",
		Version: Version,
	}, &mcp.ServerOptions{
		InitializedHandler: func(_ context.Context, req *mcp.InitializedRequest) {
			clearOnClose(sessions, req.Session)
		},
	})

	// Model lifecycle
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_model",
		Description: "Create a model (records version 1) and make it the current model of this session",
	}, mt.CreateModel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_model",
		Description: "Get a model record, optionally with all elements and relationships",
	}, mt.GetModel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_model",
		Description: "Patch model name, description or attributes",
	}, mt.UpdateModel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_model",
		Description: "Permanently delete a model with its elements, relationships, versions, lock and dictionary (irreversible)",
	}, mt.DeleteModel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_models",
		Description: "List models, most recently updated first, with optional name/description search",
	}, mt.ListModels)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "set_current_model",
		Description: "Select the model used when later calls in this session omit model_id",
	}, mt.SetCurrentModel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_current_model",
		Description: "Get the model currently selected for this session",
	}, mt.GetCurrentModel)

	// Elements and relationships
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upsert_element",
		Description: "Create an element, or replace it when id names an existing one",
	}, mt.UpsertElement)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_element",
		Description: "Patch fields of an existing element",
	}, mt.UpdateElement)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_element",
		Description: "Delete an element; relationships referencing it are kept and dangle",
	}, mt.DeleteElement)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_element",
		Description: "Get one element",
	}, mt.GetElement)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upsert_relationship",
		Description: "Create a relationship between existing elements, or replace it when id names an existing one",
	}, mt.UpsertRelationship)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_relationship",
		Description: "Patch fields of an existing relationship",
	}, mt.UpdateRelationship)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_relationship",
		Description: "Delete a relationship",
	}, mt.DeleteRelationship)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_relationship",
		Description: "Get one relationship",
	}, mt.GetRelationship)

	// Tags and dictionary
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_tag",
		Description: "Set a tag on an element or relationship; the key must be defined as a tag first",
	}, mt.AddTag)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "remove_tag",
		Description: "Remove a tag; removing an absent key changes nothing",
	}, mt.RemoveTag)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "define_attribute",
		Description: "Define or redefine an attribute or tag key for elements or relationships",
	}, mt.DefineAttribute)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_attributes",
		Description: "List attribute and tag definitions",
	}, mt.ListAttributes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_tags",
		Description: "List tag definitions",
	}, mt.ListTags)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_attribute",
		Description: "Delete an attribute or tag definition; existing values are kept",
	}, mt.DeleteAttribute)

	// Versions and locks
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_versions",
		Description: "List version entries, newest first",
	}, mt.ListVersions)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_version",
		Description: "Get a version entry with the exact model state it recorded",
	}, mt.GetVersion)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "revert_version",
		Description: "Restore the state of an earlier version as a new version; restored elements and relationships keep the version number stored in that snapshot",
	}, mt.RevertVersion)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "acquire_lock",
		Description: "Take the advisory model lock (force=true takes it over)",
	}, mt.AcquireLock)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "release_lock",
		Description: "Release the advisory model lock",
	}, mt.ReleaseLock)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_lock",
		Description: "Show who holds the model lock",
	}, mt.GetLock)

	// Graph queries
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_elements",
		Description: "Filter elements by type, layer, aspect, attribute, tag, text and validity date",
	}, qt.SearchElements)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_relationships",
		Description: "Filter relationships by type, category, endpoints, attribute, tag, text and validity date",
	}, qt.SearchRelationships)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "neighbors",
		Description: "List relationships incident to an element and the elements at their far ends",
	}, qt.Neighbors)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "path_exists",
		Description: "Check directed reachability between two elements and return a shortest path",
	}, qt.PathExists)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "temporal_slice",
		Description: "Elements and relationships valid on a date, optionally for one layer",
	}, qt.TemporalSlice)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "model_stats",
		Description: "Counts and breakdowns by type, layer and category",
	}, qt.ModelStats)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "validate_model",
		Description: "Report unknown types, dangling relationships and inconsistent validity windows",
	}, qt.ValidateModel)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "model_report",
		Description: "Model statistics with the validation summary",
	}, qt.ModelReport)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "model_insights",
		Description: "Improvement suggestions derived from the model report",
	}, qt.ModelInsights)

	return srv
}

// clearOnClose drops the session's current-model pointer once the client
// disconnects.
func clearOnClose(sessions *session.Registry, ss *mcp.ServerSession) {
	id := ss.ID()
	go func() {
		ss.Wait()
		sessions.Clear(id)
	}()
}
