package query

import (
	"sort"
	"strings"

	"github.com/depscope/depscope-mcp/internal/graph"
)

// Hotspot is a file with unusually many incoming imports.
type Hotspot struct {
	Path      string `json:"path"`
	Importers int    `json:"importers"`
}

// DigestResult is the repository-wide rollup.
type DigestResult struct {
	Scope            string                  `json:"scope,omitempty"`
	Files            int                     `json:"files"`
	Directories      int                     `json:"directories"`
	Entrypoints      int                     `json:"entrypoints"`
	Edges            int                     `json:"edges"`
	EntrypointsByTyp map[string]int          `json:"entrypointsByType"`
	Hotspots         []Hotspot               `json:"hotspots"`
	IssuesByKind     map[graph.IssueKind]int `json:"issuesByKind"`
	Meta             Meta                    `json:"meta"`
}

// maxHotspots caps the hotspot list in a digest.
const maxHotspots = 10

// Digest summarizes the whole graph, or the sub-tree under a path
// prefix when scope is non-empty.
func (e *Engine) Digest(scope string) *DigestResult {
	scope = strings.TrimSuffix(scope, "/")
	result := &DigestResult{
		Scope:            scope,
		EntrypointsByTyp: map[string]int{},
		Hotspots:         []Hotspot{},
		IssuesByKind:     map[graph.IssueKind]int{},
	}

	// Scope matches on path segments, so "src/app" does not cover
	// "src/application.ts".
	inScope := func(path string) bool {
		return scope == "" || path == scope || strings.HasPrefix(path, scope+"/")
	}

	var files []*graph.Node
	for _, n := range e.store.GetAllNodes() {
		if !inScope(n.Path) {
			continue
		}
		switch n.Kind {
		case graph.NodeFile:
			result.Files++
			files = append(files, n)
		case graph.NodeDirectory:
			result.Directories++
		case graph.NodeEntrypoint:
			result.Entrypoints++
			typ := n.MetaString("entrypointType")
			if typ == "" {
				typ = "unknown"
			}
			result.EntrypointsByTyp[typ]++
		}
	}

	for _, edge := range e.store.GetAllEdges() {
		from := e.store.GetNode(edge.From)
		if from != nil && inScope(from.Path) {
			result.Edges++
		}
	}

	for _, f := range files {
		importers := 0
		for _, edge := range e.store.GetEdgesTo(f.ID) {
			if edge.Kind == graph.EdgeImports {
				importers++
			}
		}
		if importers >= hotspotThreshold {
			result.Hotspots = append(result.Hotspots, Hotspot{Path: f.Path, Importers: importers})
		}
	}
	sort.Slice(result.Hotspots, func(i, j int) bool {
		if result.Hotspots[i].Importers != result.Hotspots[j].Importers {
			return result.Hotspots[i].Importers > result.Hotspots[j].Importers
		}
		return result.Hotspots[i].Path < result.Hotspots[j].Path
	})
	if len(result.Hotspots) > maxHotspots {
		result.Hotspots = result.Hotspots[:maxHotspots]
		result.Meta.Truncated = true
	}

	for _, issue := range e.store.GetIssues() {
		if fp, ok := issue.Meta["filePath"].(string); ok && !inScope(fp) {
			continue
		}
		result.IssuesByKind[issue.Kind]++
	}

	result.Meta.TokensEstimate = estimateTokens(result)
	return result
}
