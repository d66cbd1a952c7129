package query

import "github.com/depscope/depscope-mcp/internal/graph"

// PathOptions bounds a path query.
type PathOptions struct {
	MaxPaths int
	MaxDepth int
}

// Path is one simple path through the import graph. Edges has exactly
// one entry fewer than Nodes.
type Path struct {
	Nodes []string `json:"nodes"`
	Edges []string `json:"edges"`
	Hops  int      `json:"hops"`
}

// PathResult reports connectivity between two files. ShortestPath is the
// hop count of the shortest found path, or null when unreachable within
// MaxDepth.
type PathResult struct {
	Connected    bool   `json:"connected"`
	From         string `json:"from"`
	To           string `json:"to"`
	ShortestPath *int   `json:"shortestPath"`
	Paths        []Path `json:"paths"`
	Meta         Meta   `json:"meta"`
}

type pathState struct {
	nodes   []string
	edges   []string
	visited map[string]bool
}

// Path finds up to MaxPaths simple paths from one file to another along
// imports-kind edges, each no longer than MaxDepth hops. Paths come back
// ordered by length ascending. Absent endpoints yield a disconnected
// result, not an error.
func (e *Engine) Path(from, to string, opts *PathOptions) *PathResult {
	maxPaths, maxDepth := DefaultMaxPaths, DefaultMaxDepth
	if opts != nil {
		if opts.MaxPaths > 0 {
			maxPaths = opts.MaxPaths
		}
		if opts.MaxDepth > 0 {
			maxDepth = opts.MaxDepth
		}
	}

	result := &PathResult{From: from, To: to, Paths: []Path{}}

	src := e.store.ResolveNode(from)
	dst := e.store.ResolveNode(to)
	if src == nil || dst == nil {
		result.Meta.TokensEstimate = estimateTokens(result)
		return result
	}
	result.From = src.ID
	result.To = dst.ID

	// Breadth-first over whole paths: visited is tracked per path, not
	// globally, so distinct routes through shared nodes all surface.
	queue := []pathState{{
		nodes:   []string{src.ID},
		visited: map[string]bool{src.ID: true},
	}}

	for len(queue) > 0 && len(result.Paths) < maxPaths {
		cur := queue[0]
		queue = queue[1:]

		last := cur.nodes[len(cur.nodes)-1]
		if last == dst.ID {
			result.Paths = append(result.Paths, Path{
				Nodes: cur.nodes,
				Edges: cur.edges,
				Hops:  len(cur.edges),
			})
			continue
		}
		if len(cur.edges) >= maxDepth {
			continue
		}

		for _, edge := range e.store.GetEdgesFrom(last) {
			if edge.Kind != graph.EdgeImports {
				continue
			}
			if cur.visited[edge.To] {
				continue
			}
			next := pathState{
				nodes:   append(append([]string{}, cur.nodes...), edge.To),
				edges:   append(append([]string{}, cur.edges...), edge.ID),
				visited: make(map[string]bool, len(cur.visited)+1),
			}
			for k := range cur.visited {
				next.visited[k] = true
			}
			next.visited[edge.To] = true
			queue = append(queue, next)
		}
	}

	if len(result.Paths) > 0 {
		result.Connected = true
		shortest := result.Paths[0].Hops
		result.ShortestPath = &shortest
		result.Meta.Truncated = len(result.Paths) == maxPaths
	}
	result.Meta.TokensEstimate = estimateTokens(result)
	return result
}
