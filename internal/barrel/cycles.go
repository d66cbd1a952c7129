package barrel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/depscope/depscope-mcp/internal/graph"
)

// DetectCircularReexports scans every reexports-kind edge graph-wide and
// reports one issue per distinct cycle of barrel files re-exporting each
// other. Self re-exports and two-file mutual re-exports both count.
//
// The DFS tracks a recursion stack, not just a visited set: a node that
// was fully explored earlier is no cycle, a node currently on the stack
// is.
func (a *Analyzer) DetectCircularReexports() []graph.Issue {
	adjacency := map[string][]string{}
	for _, edge := range a.store.GetAllEdges() {
		if edge.Kind == graph.EdgeReexports {
			adjacency[edge.From] = append(adjacency[edge.From], edge.To)
		}
	}

	// deterministic traversal order keeps issue output stable
	starts := make([]string, 0, len(adjacency))
	for id := range adjacency {
		starts = append(starts, id)
	}
	sort.Strings(starts)
	for _, targets := range adjacency {
		sort.Strings(targets)
	}

	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	var cycles [][]string
	seen := map[string]bool{} // canonical cycle key -> reported

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, next := range adjacency[id] {
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
			if n := a.store.GetNode(id); n != nil {
				paths[i] = n.Path
			} else {
				paths[i] = id
			}
		}
		issues = append(issues, graph.Issue{
			ID:       "circular-reexport:" + canonicalCycleKey(cycle),
			Kind:     graph.IssueCircularReexport,
			Severity: graph.SeverityError,
			Title:    fmt.Sprintf("Circular re-export chain (%d files)", len(cycle)),
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
			out := make([]string, len(stack)-i)
			copy(out, stack[i:])
			return out
		}
	}
	return []string{entry}
}

// canonicalCycleKey rotates a cycle so its smallest member comes first,
// making A->B->A and B->A->B the same cycle.
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
	rotated := append(append([]string{}, cycle[min:]...), cycle[:min]...)
	return strings.Join(rotated, "|")
}
