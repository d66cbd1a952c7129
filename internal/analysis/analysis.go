// Package analysis runs whole-graph issue passes after a crawl and
// publishes the combined issue set in one replace.
package analysis

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/depscope/depscope-mcp/internal/barrel"
	"github.com/depscope/depscope-mcp/internal/graph"
)

// DetectOrphanExports flags exported symbols in files no other file
// imports or re-exports from. Entrypoint files are roots and never
// orphans. Findings are warnings; the enhancer can refute them against
// live references.
func DetectOrphanExports(s *graph.Store) []graph.Issue {
	var issues []graph.Issue
	for _, node := range sortedByPath(s.GetNodesByKind(graph.NodeFile)) {
		exports := node.MetaStrings("exports")
		if len(exports) == 0 {
			continue
		}
		if s.GetNode(graph.NodeID(graph.NodeEntrypoint, node.Path)) != nil {
			continue
		}
		// File-granular: the graph records who imports a file, not which
		// symbols they pull, so one importer clears every export here.
		// Per-symbol orphans are the enhancer's reference check.
		if len(s.GetEdgesTo(node.ID)) > 0 {
			continue
		}
		for _, symbol := range exports {
			if symbol == "default" {
				continue
			}
			issues = append(issues, graph.Issue{
				ID:       fmt.Sprintf("orphan-export:%s:%s", node.Path, symbol),
				Kind:     graph.IssueOrphanExport,
				Severity: graph.SeverityWarning,
				Title:    fmt.Sprintf("Exported symbol never imported: %s", symbol),
				Message:  fmt.Sprintf("%s exports %q but no file in the workspace imports from it", node.Path, symbol),
				Meta:     map[string]any{"filePath": node.Path, "symbol": symbol},
			})
		}
	}
	return issues
}

// DetectUnreachableHandlers checks entrypoint nodes: a handler nothing
// imports is unreachable, and any entrypoint whose file node vanished
// points at a stale registration.
func DetectUnreachableHandlers(s *graph.Store) []graph.Issue {
	var issues []graph.Issue
	for _, entry := range sortedByPath(s.GetNodesByKind(graph.NodeEntrypoint)) {
		file := s.GetNode(graph.NodeID(graph.NodeFile, entry.Path))
		if file == nil {
			issues = append(issues, graph.Issue{
				ID:       "entry-missing-handler:" + entry.Path,
				Kind:     graph.IssueEntryMissingHandler,
				Severity: graph.SeverityError,
				Title:    "Entrypoint file missing: " + entry.Path,
				Message:  fmt.Sprintf("entrypoint %s is registered but its file is not in the graph", entry.Path),
				Meta:     map[string]any{"filePath": entry.Path, "entrypointType": entry.MetaString("entrypointType")},
			})
			continue
		}
		if entry.MetaString("entrypointType") != "handler" {
			continue
		}
		if len(s.GetEdgesTo(file.ID)) == 0 {
			issues = append(issues, graph.Issue{
				ID:       "handler-unreachable:" + entry.Path,
				Kind:     graph.IssueHandlerUnreachable,
				Severity: graph.SeverityWarning,
				Title:    "Handler not reachable: " + entry.Path,
				Message:  fmt.Sprintf("handler %s is neither imported nor re-exported by any file", entry.Path),
				Meta:     map[string]any{"filePath": entry.Path},
			})
		}
	}
	return issues
}

// DetectDanglingEdges flags dynamic-import edges whose target never
// materialized as a node. Static dangling edges already surface through
// broken-chain validation; dynamic ones only say "something is loaded
// at runtime that the graph cannot see", hence info severity.
func DetectDanglingEdges(s *graph.Store) []graph.Issue {
	var issues []graph.Issue
	edges := s.GetAllEdges()
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	for _, e := range edges {
		if e.Kind != graph.EdgeDynamic {
			continue
		}
		if s.GetNode(e.To) != nil {
			continue
		}
		from := e.From
		if n := s.GetNode(e.From); n != nil {
			from = n.Path
		}
		spec, _ := e.Meta["specifier"].(string)
		issues = append(issues, graph.Issue{
			ID:       "dynamic-edge-unknown:" + e.ID,
			Kind:     graph.IssueDynamicEdgeUnknown,
			Severity: graph.SeverityInfo,
			Title:    "Dynamic import target unknown: " + spec,
			Message:  fmt.Sprintf("%s loads %q at runtime but the target is not in the graph", from, spec),
			Meta:     map[string]any{"filePath": from, "specifier": spec},
		})
	}
	return issues
}

// Run executes every structural pass and replaces the store's issue
// set with the combined result.
func Run(s *graph.Store, analyzer *barrel.Analyzer) []graph.Issue {
	var issues []graph.Issue
	issues = append(issues, DetectImportCycles(s)...)
	issues = append(issues, analyzer.DetectCircularReexports()...)
	issues = append(issues, analyzer.ValidateAll()...)
	issues = append(issues, DetectOrphanExports(s)...)
	issues = append(issues, DetectUnreachableHandlers(s)...)
	issues = append(issues, DetectDanglingEdges(s)...)

	s.SetIssues(issues)
	slog.Info("analysis.done", "issues", len(issues))
	return issues
}

func sortedByPath(nodes []*graph.Node) []*graph.Node {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes
}
