// Package tools implements the MCP tool handlers over the model store and the
// graph query engine.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/logger"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/session"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/storage"
)

// ErrorBody is the JSON text of a failed tool call.
type ErrorBody struct {
	Error          string   `json:"error"`
	Message        string   `json:"message"`
	Hints          []string `json:"hints,omitempty"`
	CurrentVersion *int     `json:"current_version,omitempty"`
	LockOwner      string   `json:"lock_owner,omitempty"`
	Field          string   `json:"field,omitempty"`
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolErr("marshal", errors.Wrap(err, "marshal result"))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// toolErr turns err into an IsError result carrying its taxonomy kind and the
// detail a caller needs to retry.
func toolErr(tool string, err error) (*mcp.CallToolResult, any, error) {
	body := ErrorBody{
		Error:   errors.Kind(err),
		Message: err.Error(),
		Hints:   errors.GetAllHints(err),
	}

	var vc *errors.VersionConflictError
	if errors.As(err, &vc) {
		body.CurrentVersion = &vc.Current
	}
	var lc *errors.LockConflictError
	if errors.As(err, &lc) {
		body.LockOwner = lc.Owner
	}
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	var re *errors.ReferenceError
	if errors.As(err, &re) {
		body.Field = re.Field
	}

	if body.Error == "Internal" {
		logger.Logger.Errorw("Tool failed", "tool", tool, "error", err)
	} else {
		logger.Logger.Warnw("Tool rejected request", "tool", tool, "kind", body.Error, "error", err)
	}

	data, mErr := json.Marshal(body)
	if mErr != nil {
		data = []byte(fmt.Sprintf(`{"error":%q,"message":%q}`, body.Error, body.Message))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}, nil, nil
}

func sessionID(req *mcp.CallToolRequest) string {
	if req == nil || req.Session == nil {
		return ""
	}
	return req.Session.ID()
}

// resolveModel picks the explicit model id, or the session's current model.
func resolveModel(sessions *session.Registry, req *mcp.CallToolRequest, explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if id, ok := sessions.Current(sessionID(req)); ok {
		return id, nil
	}
	return "", errors.WithHint(errors.Required("model_id"),
		"pass model_id or select a model with set_current_model")
}

// parseDate parses an optional YYYY-MM-DD value for field.
func parseDate(field, s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, errors.Validationf(field, "expected a YYYY-MM-DD date, got %q", s)
	}
	return &d, nil
}

func writeOptions(expected *int, author, message string) storage.WriteOptions {
	return storage.WriteOptions{ExpectedVersion: expected, Author: author, Message: message}
}
