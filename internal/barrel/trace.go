package barrel

import (
	"fmt"

	"github.com/depscope/depscope-mcp/internal/graph"
)

// DefaultChainDepth bounds a re-export chain trace.
const DefaultChainDepth = 10

// ChainResult is the outcome of walking a re-export chain.
type ChainResult struct {
	Symbol     string   `json:"symbol"`
	Path       []string `json:"path"`
	Depth      int      `json:"depth"`
	IsCircular bool     `json:"isCircular"`
	// Terminal is the last node reached: the concrete source module, or
	// the dead end where the chain broke off.
	Terminal string `json:"terminal,omitempty"`
}

// TraceReexportChain walks reexports-kind edges from startPath, following
// the barrel that re-exports the symbol until it reaches a non-barrel
// source, a dead end, maxDepth, or a node already on the chain (circular).
// An empty symbol is a structural caller error and fails fast.
func (a *Analyzer) TraceReexportChain(startPath, symbol string, maxDepth int) (*ChainResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("trace reexport chain: symbol must not be empty")
	}
	if maxDepth <= 0 {
		maxDepth = DefaultChainDepth
	}

	result := &ChainResult{Symbol: symbol}

	node := a.store.ResolveNode(startPath)
	if node == nil {
		return result, nil
	}

	onChain := map[string]bool{}
	current := node
	for {
		result.Path = append(result.Path, current.Path)
		result.Terminal = current.Path
		onChain[current.ID] = true

		if result.Depth >= maxDepth {
			break
		}

		next := a.nextHop(current, symbol)
		if next == "" {
			break // concrete source or dead end
		}
		result.Depth++

		nextNode := a.store.GetNode(next)
		if nextNode == nil {
			// dangling reexport edge: record the broken tail and stop
			result.Path = append(result.Path, next)
			result.Terminal = next
			break
		}
		if onChain[nextNode.ID] {
			result.Path = append(result.Path, nextNode.Path)
			result.IsCircular = true
			break
		}
		current = nextNode
	}
	return result, nil
}

// nextHop picks the outgoing reexports edge that carries the symbol:
// a named entry listing it, or failing that a wildcard entry. Returns
// the target node id, "" when the chain ends here.
func (a *Analyzer) nextHop(node *graph.Node, symbol string) string {
	var wildcard string
	for _, edge := range a.store.GetEdgesFrom(node.ID) {
		if edge.Kind != graph.EdgeReexports {
			continue
		}
		switch symbols := edge.Meta["symbols"].(type) {
		case string:
			if symbols == "*" && wildcard == "" {
				wildcard = edge.To
			}
		case []string:
			for _, s := range symbols {
				if s == symbol {
					return edge.To
				}
			}
		case []any:
			for _, v := range symbols {
				if s, ok := v.(string); ok && s == symbol {
					return edge.To
				}
			}
		}
	}
	return wildcard
}
