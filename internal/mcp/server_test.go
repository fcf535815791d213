package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	src := corpus.FileSource{
		EssaysPath:  filepath.Join("..", "corpus", "testdata", "essays.json"),
		ContentPath: filepath.Join("..", "corpus", "testdata", "essay-content.json"),
	}
	b := indexer.NewBuilder(src, "file", time.Second)
	_, err := b.Rebuild(context.Background())
	require.NoError(t, err)
	return NewServer(b)
}

func call(t *testing.T, s *server.MCPServer, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	st := s.GetTool(tool)
	require.NotNil(t, st, "tool %s not registered", tool)
	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args
	res, err := st.Handler(context.Background(), req)
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestSearchEssaysTool(t *testing.T) {
	s := newTestServer(t)
	res := call(t, s, "search_essays", map[string]any{
		"query": "writing",
		"types": []any{"History"},
	})
	require.False(t, res.IsError, text(t, res))

	var out browse.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.Len(t, out.Essays, 1)
	assert.Equal(t, corpus.ID("4"), out.Essays[0].ID)
}

func TestSearchEssaysDefaultsAndLimit(t *testing.T) {
	s := newTestServer(t)
	res := call(t, s, "search_essays", map[string]any{"limit": float64(2), "sort": "date-asc"})
	var out browse.Result
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, 6, out.Total)
	require.Len(t, out.Essays, 2)
	assert.Equal(t, corpus.ID("4"), out.Essays[0].ID)
}

func TestSearchEssaysRejectsBadArguments(t *testing.T) {
	s := newTestServer(t)
	res := call(t, s, "search_essays", map[string]any{"sort": "popularity"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "popularity")
}

func TestGetEssayTool(t *testing.T) {
	s := newTestServer(t)
	res := call(t, s, "get_essay", map[string]any{"id": "2"})
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Writing is rewriting")

	assert.True(t, call(t, s, "get_essay", map[string]any{"id": "404"}).IsError)
	assert.True(t, call(t, s, "get_essay", map[string]any{}).IsError)
}

func TestListTopicsAndFacets(t *testing.T) {
	s := newTestServer(t)

	var topics map[string][]filter.Node
	require.NoError(t, json.Unmarshal([]byte(text(t, call(t, s, "list_topics", nil))), &topics))
	assert.Len(t, topics["topics"], 3)
	assert.NotEmpty(t, topics["types"])

	var counts filter.Counts
	res := call(t, s, "facet_counts", map[string]any{"topics": []any{"Startups"}})
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &counts))
	assert.Equal(t, 2, counts.Audiences["Founders"])
	assert.Equal(t, 2, counts.Topics["Startups"])
}
