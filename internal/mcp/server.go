// Package mcp exposes the essay index to LLM clients as Model Context
// Protocol tools over stdio: searching and filtering essays, reading one
// essay, listing the topic tree and counting facets.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/handler"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const Version = "1.0.0"

// Result bounds for search_essays.
const (
	defaultLimit = 10
	maxLimit     = 100
)

// Snapshots supplies the live index.
type Snapshots interface {
	Current() (*indexer.Snapshot, error)
}

type handlers struct {
	snapshots Snapshots
	order     filter.DisplayOrder
}

// NewServer builds an MCP server with every essay tool registered.
func NewServer(snapshots Snapshots) *server.MCPServer {
	s := server.NewMCPServer(
		"essay-browser",
		Version,
		server.WithToolCapabilities(true),
	)
	registerTools(s, &handlers{snapshots: snapshots, order: filter.DefaultDisplayOrder()})
	return s
}

// Serve runs the MCP server on stdin/stdout until the client disconnects.
// Logs must go to stderr; stdout carries the JSON-RPC stream.
func Serve(snapshots Snapshots) error {
	slog.Info("essay MCP server ready", "version", Version, "transport", "stdio")
	err := server.ServeStdio(NewServer(snapshots))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("query", mcp.Description("Search text; essays are ranked by TF-IDF relevance, title matches weigh most")),
		mcp.WithArray("topics", mcp.Description(`Topic paths, levels joined by "|", e.g. "Startups" or "Startups|Getting Started|Ideas"`), mcp.WithStringItems()),
		mcp.WithArray("types", mcp.Description("Essay types, e.g. Guide, Argument"), mcp.WithStringItems()),
		mcp.WithArray("audiences", mcp.Description("Audiences, e.g. Founders, Writers"), mcp.WithStringItems()),
		mcp.WithNumber("year_min", mcp.Description("Earliest publication year")),
		mcp.WithNumber("year_max", mcp.Description("Latest publication year")),
		mcp.WithNumber("time_min", mcp.Description("Minimum reading time in minutes")),
		mcp.WithNumber("time_max", mcp.Description("Maximum reading time in minutes")),
	}
}

func registerTools(s *server.MCPServer, h *handlers) {
	searchOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Search and filter essays. Without a query, lists essays newest first."),
		mcp.WithString("sort", mcp.Description("date-desc, date-asc, length-desc or length-asc; overrides relevance order")),
		mcp.WithString("then", mcp.Description("Secondary sort key")),
		mcp.WithNumber("limit", mcp.Description("Maximum essays to return (default 10, max 100)")),
	}, filterOptions()...)
	s.AddTool(mcp.NewTool("search_essays", searchOpts...), h.searchEssays)

	s.AddTool(
		mcp.NewTool("get_essay",
			mcp.WithDescription("Read one essay's metadata and full text"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Essay ID")),
		),
		h.getEssay,
	)

	s.AddTool(
		mcp.NewTool("list_topics",
			mcp.WithDescription("List the topic tree, essay types and audiences with essay counts"),
		),
		h.listTopics,
	)

	facetOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Count essays per topic, type and audience under the given filters and query. Each facet ignores its own selection."),
	}, filterOptions()...)
	s.AddTool(mcp.NewTool("facet_counts", facetOpts...), h.facetCounts)
}

func (h *handlers) searchEssays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.snapshots.Current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	breq, err := parseArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(browse.Run(snap.Engine, snap.Docs(), breq))
}

func (h *handlers) getEssay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil //nolint:nilerr
	}
	snap, err := h.snapshots.Current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, ok := snap.Corpus.Get(corpus.ID(id))
	if !ok {
		return mcp.NewToolResultError("essay " + id + " not found"), nil
	}
	return jsonResult(struct {
		corpus.Essay
		Content string `json:"content,omitempty"`
	}{doc.Essay, doc.BodyText()})
}

func (h *handlers) listTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.snapshots.Current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs := snap.Docs()
	return jsonResult(map[string][]filter.Node{
		"topics":    filter.Hierarchy(docs, h.order),
		"types":     filter.EssayTypes(docs),
		"audiences": filter.Audiences(docs, h.order),
	})
}

func (h *handlers) facetCounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.snapshots.Current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	breq, err := parseArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(browse.Facets(snap.Engine, snap.Docs(), breq))
}

// parseArgs maps tool arguments onto the HTTP query parameters so both
// surfaces share one validation path.
func parseArgs(req mcp.CallToolRequest) (browse.Request, error) {
	args := req.GetArguments()
	q := url.Values{}
	for name, param := range map[string]string{"query": "q", "sort": "sort", "then": "then"} {
		if v, ok := args[name].(string); ok && v != "" {
			q.Set(param, v)
		}
	}
	for name, param := range map[string]string{"topics": "topic", "types": "type", "audiences": "audience"} {
		arr, _ := args[name].([]any)
		for _, v := range arr {
			if s, ok := v.(string); ok {
				q.Add(param, s)
			}
		}
	}
	for _, name := range []string{"year_min", "year_max", "time_min", "time_max", "limit"} {
		if v, ok := args[name].(float64); ok {
			q.Set(name, strconv.Itoa(int(v)))
		}
	}
	return handler.ParseRequest(q, defaultLimit, maxLimit)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
