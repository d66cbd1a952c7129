// Package query implements read-only analytical queries over a graph
// store: path finding, module dossiers, repository digests, and impact
// analysis. Queries never fail for "not found" — every lookup degrades to
// a well-typed empty or disconnected result so the tool layer can always
// produce a well-formed response.
package query

import (
	"encoding/json"

	"github.com/depscope/depscope-mcp/internal/graph"
)

// Defaults and fixed design constants.
const (
	DefaultMaxPaths = 5
	DefaultMaxDepth = 10

	// hotspotThreshold is the incoming-importer count at which a file is
	// flagged as a hotspot. Fixed by design, not configurable.
	hotspotThreshold = 5
)

// Engine answers queries over a single Store. It holds no state of its
// own and is safe for concurrent use.
type Engine struct {
	store *graph.Store
}

// New creates an Engine over the given store.
func New(s *graph.Store) *Engine {
	return &Engine{store: s}
}

// Meta carries the cost signal attached to every query result so the
// caller can decide whether to truncate before handing it to a model.
type Meta struct {
	TokensEstimate int  `json:"tokensEstimate"`
	Truncated      bool `json:"truncated"`
}

// estimateTokens approximates the token cost of a serialized result.
// Four bytes per token is close enough for a budget signal.
func estimateTokens(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b) / 4
}
