package server

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/session"
)

func TestSessionPointerClearedOnDisconnect(t *testing.T) {
	ctx := context.Background()
	sessions := session.New()
	srv := newServer(nil, nil, sessions)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	// A round trip guarantees the initialized notification was handled.
	_, err = cs.ListTools(ctx, nil)
	require.NoError(t, err)

	sessions.Set(ss.ID(), "M1")
	sessions.Set("other", "M2")

	require.NoError(t, cs.Close())

	assert.Eventually(t, func() bool {
		_, ok := sessions.Current(ss.ID())
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	id, ok := sessions.Current("other")
	assert.True(t, ok)
	assert.Equal(t, "M2", id)
}
