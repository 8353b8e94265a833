package tools

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/session"
)

func decodeErr(t *testing.T, res *mcp.CallToolResult) ErrorBody {
	t.Helper()
	require.True(t, res.IsError)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var body ErrorBody
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &body))
	return body
}

func TestToolErrCarriesRetryDetail(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, b ErrorBody)
	}{
		{"version conflict", errors.Wrap(errors.VersionConflict("M", 1, 4), "upsert element"), func(t *testing.T, b ErrorBody) {
			assert.Equal(t, "VersionConflict", b.Error)
			require.NotNil(t, b.CurrentVersion)
			assert.Equal(t, 4, *b.CurrentVersion)
			assert.NotEmpty(t, b.Hints)
		}},
		{"lock conflict", errors.LockConflict("M", "alice", "bob"), func(t *testing.T, b ErrorBody) {
			assert.Equal(t, "LockConflict", b.Error)
			assert.Equal(t, "alice", b.LockOwner)
		}},
		{"reference", errors.Reference("source_element_id", "X"), func(t *testing.T, b ErrorBody) {
			assert.Equal(t, "ReferenceError", b.Error)
			assert.Equal(t, "source_element_id", b.Field)
		}},
		{"internal", errors.New("disk on fire"), func(t *testing.T, b ErrorBody) {
			assert.Equal(t, "Internal", b.Error)
			assert.Nil(t, b.CurrentVersion)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, out, err := toolErr("test", tt.err)
			require.NoError(t, err)
			assert.Nil(t, out)
			tt.check(t, decodeErr(t, res))
		})
	}
}

func TestResolveModel(t *testing.T) {
	reg := session.New()

	id, err := resolveModel(reg, nil, " M1 ")
	require.NoError(t, err)
	assert.Equal(t, "M1", id)

	_, err = resolveModel(reg, nil, "")
	require.Error(t, err)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "model_id", ve.Field)

	reg.Set("", "M2")
	id, err = resolveModel(reg, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "M2", id)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("valid_from", "")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDate("valid_from", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: 2, Day: 29}, *d)

	_, err = parseDate("valid_to", "29/02/2024")
	require.Error(t, err)
	assert.Equal(t, "ValidationError", errors.Kind(err))
}
