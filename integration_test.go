package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/metamodel"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/query"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/server"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/tools"
)

// setupIntegration creates a real MCP server over a fresh database with
// in-memory transport and returns a connected client session.
func setupIntegration(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	catalog := metamodel.Default()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "models.db"), storage.Options{Catalog: catalog})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := server.New(store, query.New(store, catalog, query.Options{}))

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err = srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err, "server connect")

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client connect")
	t.Cleanup(func() { session.Close() })

	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool(%s)", name)
	require.NotEmpty(t, result.Content, "CallTool(%s): empty content", name)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// callTool calls a tool that must succeed and decodes its JSON into out
// (when out is non-nil). It returns the raw text.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) string {
	t.Helper()
	result := call(t, session, name, args)
	body := text(t, result)
	require.False(t, result.IsError, "CallTool(%s) returned error: %s", name, body)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(body), out), "decode %s result: %s", name, body)
	}
	return body
}

// callToolExpectError calls a tool that must fail and decodes the error body.
func callToolExpectError(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) tools.ErrorBody {
	t.Helper()
	result := call(t, session, name, args)
	body := text(t, result)
	require.True(t, result.IsError, "CallTool(%s): expected error but got success: %s", name, body)

	var eb tools.ErrorBody
	require.NoError(t, json.Unmarshal([]byte(body), &eb), "decode error body: %s", body)
	return eb
}

type writeResult struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Version int    `json:"version"`
}

type pathResult struct {
	Exists bool `json:"exists"`
	Depth  *int `json:"depth"`
	Path   []struct {
		From, To string
	} `json:"path"`
}

func createModel(t *testing.T, session *mcp.ClientSession, name string) string {
	t.Helper()
	var m struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
	}
	callTool(t, session, "create_model", map[string]any{"name": name}, &m)
	require.Equal(t, 1, m.Version)
	return m.ID
}

func upsertElement(t *testing.T, session *mcp.ClientSession, modelID, id, typeName, name string) writeResult {
	t.Helper()
	var res writeResult
	callTool(t, session, "upsert_element", map[string]any{
		"model_id": modelID, "id": id, "type_name": typeName, "name": name,
	}, &res)
	return res
}

func upsertRelationship(t *testing.T, session *mcp.ClientSession, modelID, id, typeName, source, target string) writeResult {
	t.Helper()
	var res writeResult
	callTool(t, session, "upsert_relationship", map[string]any{
		"model_id": modelID, "id": id, "type_name": typeName,
		"source_element_id": source, "target_element_id": target,
	}, &res)
	return res
}

func TestIntegration_ListTools(t *testing.T) {
	session := setupIntegration(t)

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	expected := []string{
		"create_model", "get_model", "update_model", "delete_model", "list_models",
		"set_current_model", "get_current_model",
		"upsert_element", "update_element", "delete_element", "get_element",
		"upsert_relationship", "update_relationship", "delete_relationship", "get_relationship",
		"add_tag", "remove_tag", "define_attribute", "list_attributes", "list_tags", "delete_attribute",
		"list_versions", "get_version", "revert_version",
		"acquire_lock", "release_lock", "get_lock",
		"search_elements", "search_relationships", "neighbors", "path_exists", "temporal_slice",
		"model_stats", "validate_model", "model_report", "model_insights",
	}

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, name := range expected {
		assert.True(t, names[name], "missing tool %s", name)
	}
	assert.Len(t, result.Tools, len(expected))
}

func TestIntegration_ServingScenario(t *testing.T) {
	session := setupIntegration(t)
	m := createModel(t, session, "M")

	assert.Equal(t, 2, upsertElement(t, session, m, "E1", "Business Actor", "Customer").Version)
	assert.Equal(t, 3, upsertElement(t, session, m, "E2", "Business Service", "Order").Version)
	assert.Equal(t, 4, upsertRelationship(t, session, m, "R1", "Serving", "E1", "E2").Version)

	var stats struct {
		Version int `json:"version"`
		Counts  struct {
			Elements      int `json:"elements"`
			Relationships int `json:"relationships"`
		} `json:"counts"`
	}
	callTool(t, session, "model_stats", map[string]any{"model_id": m}, &stats)
	assert.Equal(t, 4, stats.Version)
	assert.Equal(t, 2, stats.Counts.Elements)
	assert.Equal(t, 1, stats.Counts.Relationships)

	var nb struct {
		Neighbors []struct {
			ID string `json:"id"`
		} `json:"neighbors"`
	}
	callTool(t, session, "neighbors", map[string]any{"model_id": m, "element_id": "E1", "direction": "out"}, &nb)
	require.Len(t, nb.Neighbors, 1)
	assert.Equal(t, "E2", nb.Neighbors[0].ID)

	var path pathResult
	callTool(t, session, "path_exists", map[string]any{
		"model_id": m, "source_element_id": "E1", "target_element_id": "E2", "max_depth": 1,
	}, &path)
	assert.True(t, path.Exists)
	require.NotNil(t, path.Depth)
	assert.Equal(t, 1, *path.Depth)

	path = pathResult{}
	callTool(t, session, "path_exists", map[string]any{
		"model_id": m, "source_element_id": "E2", "target_element_id": "E1",
	}, &path)
	assert.False(t, path.Exists)
	assert.Nil(t, path.Depth)
}

func TestIntegration_CyclePath(t *testing.T) {
	session := setupIntegration(t)
	m := createModel(t, session, "Cycle")

	for _, id := range []string{"A", "B", "C"} {
		upsertElement(t, session, m, id, "Application Component", id)
	}
	upsertRelationship(t, session, m, "AB", "Flow", "A", "B")
	upsertRelationship(t, session, m, "BC", "Flow", "B", "C")
	upsertRelationship(t, session, m, "CA", "Flow", "C", "A")

	var path pathResult
	callTool(t, session, "path_exists", map[string]any{
		"model_id": m, "source_element_id": "A", "target_element_id": "C", "max_depth": 1,
	}, &path)
	assert.False(t, path.Exists)

	callTool(t, session, "path_exists", map[string]any{
		"model_id": m, "source_element_id": "A", "target_element_id": "C", "max_depth": 2,
	}, &path)
	assert.True(t, path.Exists)
	require.NotNil(t, path.Depth)
	assert.Equal(t, 2, *path.Depth)
	assert.Len(t, path.Path, 2)
}

func TestIntegration_Tags(t *testing.T) {
	session := setupIntegration(t)
	m := createModel(t, session, "Tags")
	upsertElement(t, session, m, "E1", "Node", "db-01")

	eb := callToolExpectError(t, session, "add_tag", map[string]any{
		"model_id": m, "element_id": "E1", "key": "urgency", "value": "high",
	})
	assert.Equal(t, "UnknownTagKey", eb.Error)
	assert.NotEmpty(t, eb.Hints)

	callTool(t, session, "define_attribute", map[string]any{
		"model_id": m, "target_type": "element", "key": "urgency", "is_tag": true,
	}, nil)

	var res writeResult
	callTool(t, session, "add_tag", map[string]any{
		"model_id": m, "element_id": "E1", "key": "urgency", "value": "high",
	}, &res)
	assert.Equal(t, 3, res.Version)

	var found struct {
		Count    int `json:"count"`
		Elements []struct {
			ID string `json:"id"`
		} `json:"elements"`
	}
	callTool(t, session, "search_elements", map[string]any{
		"model_id": m, "tag_key": "urgency", "tag_value": "HIGH",
	}, &found)
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "E1", found.Elements[0].ID)

	callTool(t, session, "remove_tag", map[string]any{"model_id": m, "element_id": "E1", "key": "urgency"}, &res)
	assert.Equal(t, 4, res.Version)

	callTool(t, session, "remove_tag", map[string]any{"model_id": m, "element_id": "E1", "key": "urgency"}, &res)
	assert.Equal(t, "unchanged", res.Status)
	assert.Equal(t, 4, res.Version)
}

func TestIntegration_VersionConflict(t *testing.T) {
	session := setupIntegration(t)
	m := createModel(t, session, "Conflict")
	upsertElement(t, session, m, "E1", "Business Actor", "Customer")

	eb := callToolExpectError(t, session, "upsert_element", map[string]any{
		"model_id": m, "id": "E2", "type_name": "Business Role", "name": "Buyer",
		"expected_version": 1,
	})
	assert.Equal(t, "VersionConflict", eb.Error)
	require.NotNil(t, eb.CurrentVersion)
	assert.Equal(t, 2, *eb.CurrentVersion)

	eb = callToolExpectError(t, session, "upsert_relationship", map[string]any{
		"model_id": m, "type_name": "Serving", "source_element_id": "E1", "target_element_id": "ghost",
	})
	assert.Equal(t, "ReferenceError", eb.Error)
	assert.Equal(t, "target_element_id", eb.Field)
}

func TestIntegration_Revert(t *testing.T) {
	session := setupIntegration(t)
	m := createModel(t, session, "Revert")
	upsertElement(t, session, m, "E1", "Business Actor", "Customer")
	upsertElement(t, session, m, "E2", "Business Actor", "Supplier")
	callTool(t, session, "delete_element", map[string]any{"model_id": m, "element_id": "E1"}, nil)

	var rev struct {
		Version          int `json:"version"`
		ElementsRestored int `json:"elements_restored"`
		ElementsRemoved  int `json:"elements_removed"`
	}
	callTool(t, session, "revert_version", map[string]any{"model_id": m, "version": 2}, &rev)
	assert.Equal(t, 5, rev.Version)
	assert.Equal(t, 1, rev.ElementsRestored)
	assert.Equal(t, 1, rev.ElementsRemoved)

	var el struct {
		Name string `json:"name"`
	}
	callTool(t, session, "get_element", map[string]any{"model_id": m, "element_id": "E1"}, &el)
	assert.Equal(t, "Customer", el.Name)

	eb := callToolExpectError(t, session, "get_element", map[string]any{"model_id": m, "element_id": "E2"})
	assert.Equal(t, "NotFound", eb.Error)

	var versions []struct {
		Version int    `json:"version"`
		Action  string `json:"action"`
	}
	callTool(t, session, "list_versions", map[string]any{"model_id": m}, &versions)
	require.Len(t, versions, 5)
	assert.Equal(t, 5, versions[0].Version)
	assert.Equal(t, "revert", versions[0].Action)
}

func TestIntegration_CurrentModel(t *testing.T) {
	session := setupIntegration(t)

	eb := callToolExpectError(t, session, "model_stats", map[string]any{})
	assert.Equal(t, "ValidationError", eb.Error)
	assert.Equal(t, "model_id", eb.Field)

	first := createModel(t, session, "First")
	second := createModel(t, session, "Second")

	// create_model selects the new model
	upsertElement(t, session, "", "E1", "Business Actor", "Customer")
	var el struct {
		ModelID string `json:"model_id"`
	}
	callTool(t, session, "get_element", map[string]any{"element_id": "E1"}, &el)
	assert.Equal(t, second, el.ModelID)

	callTool(t, session, "set_current_model", map[string]any{"model_id": first}, nil)
	var cur struct {
		ID string `json:"id"`
	}
	callTool(t, session, "get_current_model", map[string]any{}, &cur)
	assert.Equal(t, first, cur.ID)

	callTool(t, session, "delete_model", map[string]any{"model_id": first}, nil)
	body := callTool(t, session, "get_current_model", map[string]any{}, nil)
	assert.Contains(t, body, "No model is currently selected")
}

func TestIntegration_Locks(t *testing.T) {
	session := setupIntegration(t)
	m := createModel(t, session, "Locks")

	var st struct {
		Status string `json:"status"`
		Locked bool   `json:"locked"`
	}
	callTool(t, session, "acquire_lock", map[string]any{"model_id": m, "owner": "alice"}, &st)
	assert.Equal(t, "acquired", st.Status)

	eb := callToolExpectError(t, session, "acquire_lock", map[string]any{"model_id": m, "owner": "bob"})
	assert.Equal(t, "LockConflict", eb.Error)
	assert.Equal(t, "alice", eb.LockOwner)

	callTool(t, session, "release_lock", map[string]any{"model_id": m, "owner": "alice"}, &st)
	assert.Equal(t, "released", st.Status)
	assert.False(t, st.Locked)
}
