// Package mcpserver exposes the background loop's search and rescan
// operations as Model Context Protocol tools (search also expands each
// match into a path record; there is no separate expand tool), so an MCP client (Claude
// Desktop, Cursor, an agent harness) can search the indexed tree over
// stdio. Grounded on Yakitrak-obsidian-cli's pkg/mcp package: tool
// definitions via mcp.NewTool/mcp.With*, registration via
// server.MCPServer.AddTool, JSON-encoded mcp.NewToolResultText replies,
// and cmd/mcp.go's server.NewMCPServer + server.ServeStdio wiring.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/loop"
	"github.com/everyfind/everyfind/internal/query"
	"github.com/everyfind/everyfind/internal/slab"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Config bundles the loop handle tools are dispatched against.
type Config struct {
	Loop *loop.Loop
}

// searchResult is the JSON payload the search tool returns.
type searchResult struct {
	Cancelled  bool     `json:"cancelled"`
	Highlights []string `json:"highlights,omitempty"`
	Files      []record `json:"files"`
}

type record struct {
	Path string `json:"path"`
	Size uint64 `json:"size,omitempty"`
	Dir  bool   `json:"dir"`
}

// NewServer builds an MCP server exposing the search and rescan tools. Run it with server.ServeStdio(s).
func NewServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer(
		"everyfind",
		"v1",
		server.WithToolCapabilities(false),
		server.WithInstructions("Search an indexed local file tree with Everything-compatible query syntax (substring, \"phrase\", ext:, size:, dm:, regex:...)."),
	)

	searchTool := mcp.NewTool("search",
		mcp.WithDescription(`Run an Everything-compatible query against the indexed file tree and return matching paths as JSON. Response: {cancelled, highlights, files:[{path,size,dir}]}.`),
		mcp.WithString("query", mcp.Required(), mcp.Description("Everything-compatible query text, e.g. `report ext:pdf size:>1mb`.")),
		mcp.WithBoolean("caseInsensitive", mcp.Description("Match case-insensitively (default true).")),
	)
	s.AddTool(searchTool, SearchTool(cfg))

	rescanTool := mcp.NewTool("rescan",
		mcp.WithDescription("Schedule a full rescan of the watch root and wait for it to complete."),
	)
	s.AddTool(rescanTool, RescanTool(cfg))

	return s
}

func argString(req mcp.CallToolRequest, key string) (string, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := args[key].(string)
	return v, ok
}

func argBool(req mcp.CallToolRequest, key string, def bool) bool {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return def
	}
	v, ok := args[key].(bool)
	if !ok {
		return def
	}
	return v
}

// SearchTool evaluates a query string against the loop's cache and
// resolves every matching index into a display record.
func SearchTool(cfg Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, ok := argString(req, "query")
		if !ok || text == "" {
			return mcp.NewToolResultError("query parameter is required and must be a string"), nil
		}
		caseInsensitive := argBool(req, "caseInsensitive", true)

		searchReply := make(chan loop.SearchOutcome, 1)
		cfg.Loop.Search <- loop.SearchRequest{
			Text:    text,
			Options: query.SearchOptions{CaseInsensitive: caseInsensitive},
			Token:   cancel.Noop(),
			Reply:   searchReply,
		}
		out := <-searchReply
		if out.Err != nil {
			return mcp.NewToolResultError(out.Err.Error()), nil
		}

		result := searchResult{Cancelled: out.Cancelled, Highlights: out.Highlights}
		if !out.Cancelled && len(out.Nodes) > 0 {
			expandReply := make(chan []cache.Record, 1)
			cfg.Loop.Expand <- loop.ExpandRequest{Indices: out.Nodes, FetchMeta: true, Reply: expandReply}
			result.Files = toRecords(<-expandReply)
		}

		encoded, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal search result: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

func toRecords(recs []cache.Record) []record {
	out := make([]record, len(recs))
	for i, r := range recs {
		out[i] = record{
			Path: r.Path,
			Size: r.Meta.Size,
			Dir:  r.Meta.FileType == slab.TypeDir,
		}
	}
	return out
}

// RescanTool schedules a full rescan and blocks until it completes.
func RescanTool(cfg Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reply := make(chan error, 1)
		cfg.Loop.Rescan <- loop.RescanRequest{Reply: reply}
		if err := <-reply; err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(`{"status":"ok"}`), nil
	}
}
