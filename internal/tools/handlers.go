package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/depscope/depscope-mcp/internal/analysis"
	"github.com/depscope/depscope-mcp/internal/enhance"
	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/query"
)

func (s *Server) handleGraphPath(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	from := getStringArg(args, "from")
	to := getStringArg(args, "to")
	if from == "" || to == "" {
		return errResult("missing required 'from' or 'to' parameter"), nil
	}
	maxPaths := getIntArg(args, "max_paths", query.DefaultMaxPaths)
	maxDepth := getIntArg(args, "max_depth", query.DefaultMaxDepth)

	result := s.engine.Path(from, to, &query.PathOptions{MaxPaths: maxPaths, MaxDepth: maxDepth})
	meta := EnvelopeMeta{
		ApproxTokens: result.Meta.TokensEstimate,
		Truncated:    result.Meta.Truncated,
		Limits:       map[string]int{"max_paths": maxPaths, "max_depth": maxDepth},
	}
	if !result.Connected {
		meta.NextQuerySuggestion = fmt.Sprintf("impact_analysis target=%s to see what actually depends on it", to)
	}
	return jsonResult(s.envelope("graph_path", result, meta)), nil
}

func (s *Server) handleModuleInfo(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	path := getStringArg(args, "path")
	if path == "" {
		return errResult("missing required 'path' parameter"), nil
	}

	result := s.engine.Module(path)
	meta := EnvelopeMeta{ApproxTokens: result.Meta.TokensEstimate, Truncated: result.Meta.Truncated}
	if !result.Found {
		meta.NextQuerySuggestion = "workspace_digest to list what the graph knows about"
	}
	return jsonResult(s.envelope("module_info", result, meta)), nil
}

func (s *Server) handleWorkspaceDigest(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	result := s.engine.Digest(getStringArg(args, "scope"))
	meta := EnvelopeMeta{ApproxTokens: result.Meta.TokensEstimate, Truncated: result.Meta.Truncated}
	return jsonResult(s.envelope("workspace_digest", result, meta)), nil
}

func (s *Server) handleImpactAnalysis(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	target := getStringArg(args, "target")
	if target == "" {
		return errResult("missing required 'target' parameter"), nil
	}
	maxDepth := getIntArg(args, "max_depth", query.DefaultImpactDepth)

	result := s.engine.Impact(target, maxDepth)
	meta := EnvelopeMeta{
		ApproxTokens: result.Meta.TokensEstimate,
		Truncated:    result.Meta.Truncated,
		Limits:       map[string]int{"max_depth": maxDepth},
	}
	if result.Summary.HasEntrypoints {
		meta.NextQuerySuggestion = fmt.Sprintf("graph_path from=%s to=%s to see the route into an entrypoint", result.Entrypoints[0].Path, target)
	}
	return jsonResult(s.envelope("impact_analysis", result, meta)), nil
}

func (s *Server) handleListBarrels(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	barrels := s.barrel.GetAllBarrels()
	result := map[string]any{
		"count":   len(barrels),
		"barrels": barrels,
	}
	return jsonResult(s.envelope("list_barrels", result, EnvelopeMeta{})), nil
}

func (s *Server) handleTraceReexport(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	path := getStringArg(args, "path")
	symbol := getStringArg(args, "symbol")
	if path == "" {
		return errResult("missing required 'path' parameter"), nil
	}
	maxDepth := getIntArg(args, "max_depth", 0)

	chain, err := s.barrel.TraceReexportChain(path, symbol, maxDepth)
	if err != nil {
		return errResult(fmt.Sprintf("trace error: %v", err)), nil
	}
	return jsonResult(s.envelope("trace_reexport", chain, EnvelopeMeta{})), nil
}

func (s *Server) handleWorkspaceIssues(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	kindFilter := graph.IssueKind(getStringArg(args, "kind"))
	validate := getBoolArg(args, "validate")

	issues := s.store.GetIssues()
	issues = append(issues, s.enhancer.SyncDiagnosticsToIssues()...)
	if kindFilter != "" {
		filtered := issues[:0]
		for _, issue := range issues {
			if issue.Kind == kindFilter {
				filtered = append(filtered, issue)
			}
		}
		issues = filtered
	}

	var result any
	if validate {
		validated := s.enhancer.ValidateIssues(ctx, issues)
		result = map[string]any{"count": len(validated), "issues": validated}
	} else {
		result = map[string]any{"count": len(issues), "issues": issues}
	}
	return jsonResult(s.envelope("workspace_issues", result, EnvelopeMeta{})), nil
}

func (s *Server) handleNodeInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	path := getStringArg(args, "path")
	if path == "" {
		return errResult("missing required 'path' parameter"), nil
	}

	var info *enhance.NodeInfo
	if s.enhancer != nil {
		info = s.enhancer.GetNodeInfo(ctx, path)
	} else {
		info = &enhance.NodeInfo{Path: path}
	}
	meta := EnvelopeMeta{}
	if info.Found && !info.LSPAvailable {
		meta.NextQuerySuggestion = "structural data only; attach a language server for symbols and diagnostics"
	}
	return jsonResult(s.envelope("node_info", info, meta)), nil
}

func (s *Server) handleReindexWorkspace(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.indexer == nil {
		return errResult("no indexer configured"), nil
	}
	stats, err := s.indexer.Run(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("reindex error: %v", err)), nil
	}
	issues := analysis.Run(s.store, s.barrel)
	result := map[string]any{
		"files":       stats.Files,
		"nodes":       stats.Nodes,
		"edges":       stats.Edges,
		"issues":      len(issues),
		"duration_ms": stats.Duration.Milliseconds(),
	}
	return jsonResult(s.envelope("reindex_workspace", result, EnvelopeMeta{})), nil
}
