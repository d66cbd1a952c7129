package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/depscope/depscope-mcp/internal/graph"
)

// DetectImportCycles finds circular import chains among file nodes.
// One issue is emitted per distinct cycle; a cycle is identified by its
// member set regardless of which node the DFS entered it through.
func DetectImportCycles(s *graph.Store) []graph.Issue {
	adj := map[string][]string{}
	var starts []string
	for _, e := range s.GetAllEdges() {
		if e.Kind != graph.EdgeImports {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		starts = append(starts, e.From)
	}
	sort.Strings(starts)
	for _, targets := range adj {
		sort.Strings(targets)
	}

	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	seen := map[string]bool{}
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, next := range adj[id] {
			if onStack[next] {
				cycle := extractCycle(stack, next)
				key := canonicalCycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
				continue
			}
			if !visited[next] {
				dfs(next)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[id] = false
	}

	for _, id := range starts {
		if !visited[id] {
			dfs(id)
		}
	}

	issues := make([]graph.Issue, 0, len(cycles))
	for _, cycle := range cycles {
		paths := make([]string, len(cycle))
		for i, id := range cycle {
			if n := s.GetNode(id); n != nil {
				paths[i] = n.Path
			} else {
				paths[i] = id
			}
		}
		issues = append(issues, graph.Issue{
			ID:       "circular-dependency:" + canonicalCycleKey(cycle),
			Kind:     graph.IssueCircularDependency,
			Severity: graph.SeverityWarning,
			Title:    fmt.Sprintf("Circular import chain (%d files)", len(cycle)),
			Message:  strings.Join(paths, " -> ") + " -> " + paths[0],
			Meta:     map[string]any{"filePath": paths[0], "cycleLength": len(cycle)},
			Evidence: paths,
		})
	}
	return issues
}

// extractCycle returns the stack segment from the first occurrence of
// entry to the top.
func extractCycle(stack []string, entry string) []string {
	for i, id := range stack {
		if id == entry {
			cycle := make([]string, len(stack)-i)
			copy(cycle, stack[i:])
			return cycle
		}
	}
	return []string{entry}
}

// canonicalCycleKey rotates a cycle so it starts at its smallest member,
// giving the same key for every entry point into the same cycle.
func canonicalCycleKey(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	min := 0
	for i, id := range cycle {
		if id < cycle[min] {
			min = i
		}
	}
	rotated := make([]string, 0, len(cycle))
	rotated = append(rotated, cycle[min:]...)
	rotated = append(rotated, cycle[:min]...)
	return strings.Join(rotated, "|")
}
