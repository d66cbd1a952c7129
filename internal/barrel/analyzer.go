// Package barrel statically detects barrel files (modules whose purpose
// is re-exporting symbols from other modules), validates re-export
// integrity against the graph, and finds circular re-export chains.
//
// Parsing is regex-based: re-export statement syntax is highly regular
// and a full parse adds no signal. The per-file cache is a derived,
// disposable view — the graph store stays authoritative for reexport
// edges once they are created.
package barrel

import (
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/resolve"
)

// Analysis is the cached result of analyzing one file's export
// statements.
type Analysis struct {
	FilePath  string          `json:"filePath"`
	IsBarrel  bool            `json:"isBarrel"`
	Reexports []ReexportEntry `json:"reexports"`
}

type cacheEntry struct {
	contentHash uint64
	analysis    *Analysis
}

// Analyzer parses re-export statements and maintains a per-file cache.
// Cache entries are invalidated only by ClearCache/ClearFileCache, never
// by content hashing on the caller's behalf — callers invalidate on file
// change.
type Analyzer struct {
	store *graph.Store

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// NewAnalyzer creates an Analyzer over the given store.
func NewAnalyzer(s *graph.Store) *Analyzer {
	return &Analyzer{
		store: s,
		cache: make(map[string]*cacheEntry),
	}
}

// AnalyzeFile parses path's re-export statements. Repeated calls with
// identical content return the same *Analysis pointer, so callers can
// use cheap pointer equality to detect "nothing changed."
func (a *Analyzer) AnalyzeFile(path, content string) *Analysis {
	hash := xxh3.HashString(content)

	a.mu.Lock()
	defer a.mu.Unlock()
	if entry, ok := a.cache[path]; ok && entry.contentHash == hash {
		return entry.analysis
	}

	reexports := parseReexports(content)
	analysis := &Analysis{
		FilePath:  path,
		IsBarrel:  isIndexFile(path) && len(reexports) > 0,
		Reexports: reexports,
	}
	a.cache[path] = &cacheEntry{contentHash: hash, analysis: analysis}
	return analysis
}

// GetAllBarrels returns every cached analysis that identified a barrel.
func (a *Analyzer) GetAllBarrels() []*Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*Analysis
	for _, entry := range a.cache {
		if entry.analysis.IsBarrel {
			out = append(out, entry.analysis)
		}
	}
	return out
}

// ClearCache drops every cached analysis.
func (a *Analyzer) ClearCache() {
	a.mu.Lock()
	a.cache = make(map[string]*cacheEntry)
	a.mu.Unlock()
}

// ClearFileCache drops the cached analysis for one file.
func (a *Analyzer) ClearFileCache(path string) {
	a.mu.Lock()
	delete(a.cache, path)
	a.mu.Unlock()
}

// CreateBarrelEdges converts a file's re-export statements into
// reexports-kind edges, one per statement. The symbol list (or "*")
// travels in edge meta; the edge itself is structural.
func (a *Analyzer) CreateBarrelEdges(path, content string) []*graph.Edge {
	analysis := a.AnalyzeFile(path, content)
	fromID := graph.NodeID(graph.NodeFile, path)

	var edges []*graph.Edge
	for _, entry := range analysis.Reexports {
		toID := a.reexportTargetID(path, entry.Source)
		meta := map[string]any{"source": entry.Source}
		if entry.Wildcard {
			meta["symbols"] = "*"
			if entry.Namespace != "" {
				meta["namespace"] = entry.Namespace
			}
		} else {
			names := make([]string, len(entry.Symbols))
			for i, s := range entry.Symbols {
				names[i] = s.Name
			}
			meta["symbols"] = names
		}
		edges = append(edges, &graph.Edge{
			ID:         graph.EdgeID(fromID, toID, graph.EdgeReexports),
			From:       fromID,
			To:         toID,
			Kind:       graph.EdgeReexports,
			Confidence: graph.ConfidenceHigh,
			Meta:       meta,
		})
	}
	return edges
}

// reexportTargetID resolves a re-export source to a node id. When the
// source is not (yet) in the graph the first candidate path still yields
// a stable id — the edge dangles, which is legal and is what broken-chain
// analysis looks for.
func (a *Analyzer) reexportTargetID(fromPath, source string) string {
	if n := resolve.File(a.store, fromPath, source); n != nil {
		return n.ID
	}
	if cands := resolve.Candidates(fromPath, source); len(cands) > 0 {
		return graph.NodeID(graph.NodeFile, cands[0])
	}
	return graph.NodeID(graph.NodeFile, source)
}
