// Package tools exposes the dependency graph over MCP. Every tool
// answers with a versioned envelope; not-found conditions produce empty
// results, never errors.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/depscope/depscope-mcp/internal/barrel"
	"github.com/depscope/depscope-mcp/internal/crawler"
	"github.com/depscope/depscope-mcp/internal/enhance"
	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/query"
)

// Indexer triggers a full workspace crawl; satisfied by
// crawler.Crawler.
type Indexer interface {
	Run(ctx context.Context) (*crawler.Stats, error)
}

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp       *mcp.Server
	store     *graph.Store
	engine    *query.Engine
	barrel    *barrel.Analyzer
	enhancer  *enhance.Enhancer
	indexer   Indexer
	workspace string
}

// NewServer creates an MCP server with all tools registered.
func NewServer(s *graph.Store, analyzer *barrel.Analyzer, enhancer *enhance.Enhancer, indexer Indexer, workspace string) *Server {
	srv := &Server{
		store:     s,
		engine:    query.New(s),
		barrel:    analyzer,
		enhancer:  enhancer,
		indexer:   indexer,
		workspace: workspace,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "depscope-mcp",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. graph_path
	s.mcp.AddTool(&mcp.Tool{
		Name:        "graph_path",
		Description: "Find import paths between two files using BFS over the dependency graph. Returns up to max_paths shortest paths, each as an ordered node list with its edges. Use for answering 'how does A end up depending on B'.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"from": {
					"type": "string",
					"description": "Source file path (e.g. 'src/app.ts') or node id"
				},
				"to": {
					"type": "string",
					"description": "Target file path or node id"
				},
				"max_paths": {
					"type": "integer",
					"description": "Maximum number of paths to return (default 5)"
				},
				"max_depth": {
					"type": "integer",
					"description": "Maximum path length in edges (default 10)"
				}
			},
			"required": ["from", "to"]
		}`),
	}, s.handleGraphPath)

	// 2. module_info
	s.mcp.AddTool(&mcp.Tool{
		Name:        "module_info",
		Description: "Summarize one module: what it imports, what imports it, its exported symbols, whether it is a barrel, and any entrypoints registered at its path.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "File path relative to the workspace root (e.g. 'src/utils.ts')"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleModuleInfo)

	// 3. workspace_digest
	s.mcp.AddTool(&mcp.Tool{
		Name:        "workspace_digest",
		Description: "Return a compact workspace overview: file/directory/entrypoint/edge counts, entrypoints by type, import hotspots (files with many importers), and issue counts by kind. Optionally scoped to a path prefix.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"scope": {
					"type": "string",
					"description": "Path prefix to scope the digest to (e.g. 'src/api'). Empty for the whole workspace."
				}
			}
		}`),
	}, s.handleWorkspaceDigest)

	// 4. impact_analysis
	s.mcp.AddTool(&mcp.Tool{
		Name:        "impact_analysis",
		Description: "Compute the blast radius of changing a file: every file that transitively imports it, graded CRITICAL/HIGH/MEDIUM/LOW by import distance, plus any entrypoints in the affected set.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"target": {
					"type": "string",
					"description": "File path whose change impact to compute"
				},
				"max_depth": {
					"type": "integer",
					"description": "Maximum reverse-import distance to follow (default 3)"
				}
			},
			"required": ["target"]
		}`),
	}, s.handleImpactAnalysis)

	// 5. list_barrels
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_barrels",
		Description: "List every barrel file (index files whose purpose is re-exporting) with its re-export statements: source specifier, wildcard or named symbol list.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListBarrels)

	// 6. trace_reexport
	s.mcp.AddTool(&mcp.Tool{
		Name:        "trace_reexport",
		Description: "Follow a symbol through barrel re-export chains to the file that actually declares it. Reports each hop, whether the chain is circular, and where it terminates.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Barrel file to start from (e.g. 'src/index.ts')"
				},
				"symbol": {
					"type": "string",
					"description": "Symbol name to trace"
				},
				"max_depth": {
					"type": "integer",
					"description": "Maximum chain length (default 10)"
				}
			},
			"required": ["path", "symbol"]
		}`),
	}, s.handleTraceReexport)

	// 7. workspace_issues
	s.mcp.AddTool(&mcp.Tool{
		Name:        "workspace_issues",
		Description: "Return detected structural issues (circular dependencies, broken export chains, orphan exports, unreachable handlers) merged with live editor diagnostics. With validate=true each issue is corroborated against the language server and carries a confidence grade.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"kind": {
					"type": "string",
					"description": "Only return issues of this kind (e.g. 'CIRCULAR_DEPENDENCY')"
				},
				"validate": {
					"type": "boolean",
					"description": "Corroborate issues against the language server (default: false)"
				}
			}
		}`),
	}, s.handleWorkspaceIssues)

	// 8. node_info
	s.mcp.AddTool(&mcp.Tool{
		Name:        "node_info",
		Description: "Return an enriched view of one file: imports, importers, exports, entrypoint/hotspot status, issue count, and (when a language server is attached) its symbol tree and current diagnostics.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "File path relative to the workspace root"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleNodeInfo)

	// 9. reindex_workspace
	s.mcp.AddTool(&mcp.Tool{
		Name:        "reindex_workspace",
		Description: "Re-crawl the workspace from disk, rebuild the dependency graph, and re-run all issue passes. Use after large changes outside the watcher's view (branch switch, generator run).",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleReindexWorkspace)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params.Arguments == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}
