package query

import (
	"sort"

	"github.com/depscope/depscope-mcp/internal/graph"
)

// RiskLevel classifies impact by BFS hop depth from the changed file.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// HopToRisk maps a reverse-BFS hop depth to a risk level. Direct
// importers carry the highest risk.
func HopToRisk(hop int) RiskLevel {
	switch hop {
	case 1:
		return RiskCritical
	case 2:
		return RiskHigh
	case 3:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DefaultImpactDepth bounds the reverse traversal.
const DefaultImpactDepth = 3

// AffectedFile is one member of the transitive importedBy closure.
type AffectedFile struct {
	Path string    `json:"path"`
	Hop  int       `json:"hop"`
	Risk RiskLevel `json:"risk"`
}

// ImpactSummary aggregates risk counts over the closure.
type ImpactSummary struct {
	Critical       int  `json:"critical"`
	High           int  `json:"high"`
	Medium         int  `json:"medium"`
	Low            int  `json:"low"`
	Total          int  `json:"total"`
	HasEntrypoints bool `json:"hasEntrypoints"`
}

// ImpactResult reports the blast radius of changing one file.
type ImpactResult struct {
	Found       bool            `json:"found"`
	Target      string          `json:"target"`
	Affected    []AffectedFile  `json:"affected"`
	Entrypoints []EntrypointRef `json:"entrypoints"`
	Summary     ImpactSummary   `json:"summary"`
	Meta        Meta            `json:"meta"`
}

// Impact computes the transitive closure of importedBy up to maxDepth
// hops, classifying each affected file by risk tier. Entrypoints whose
// files fall inside the closure are called out separately — reachable
// externally-facing surface raises the stakes of a change.
func (e *Engine) Impact(target string, maxDepth int) *ImpactResult {
	if maxDepth <= 0 {
		maxDepth = DefaultImpactDepth
	}

	result := &ImpactResult{
		Target:      target,
		Affected:    []AffectedFile{},
		Entrypoints: []EntrypointRef{},
	}

	node := e.store.ResolveNode(target)
	if node == nil {
		result.Meta.TokensEstimate = estimateTokens(result)
		return result
	}
	result.Found = true
	result.Target = node.Path

	type queued struct {
		id  string
		hop int
	}
	visited := map[string]int{node.ID: 0}
	queue := []queued{{node.ID, 0}}
	affectedPaths := map[string]bool{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hop >= maxDepth {
			continue
		}
		for _, edge := range e.store.GetEdgesTo(cur.id) {
			if edge.Kind != graph.EdgeImports {
				continue
			}
			if _, seen := visited[edge.From]; seen {
				continue
			}
			hop := cur.hop + 1
			visited[edge.From] = hop
			queue = append(queue, queued{edge.From, hop})

			if n := e.store.GetNode(edge.From); n != nil {
				result.Affected = append(result.Affected, AffectedFile{
					Path: n.Path,
					Hop:  hop,
					Risk: HopToRisk(hop),
				})
				affectedPaths[n.Path] = true
			}
		}
	}

	sort.Slice(result.Affected, func(i, j int) bool {
		if result.Affected[i].Hop != result.Affected[j].Hop {
			return result.Affected[i].Hop < result.Affected[j].Hop
		}
		return result.Affected[i].Path < result.Affected[j].Path
	})

	affectedPaths[node.Path] = true
	for _, ep := range e.store.GetNodesByKind(graph.NodeEntrypoint) {
		if affectedPaths[ep.Path] {
			result.Entrypoints = append(result.Entrypoints, EntrypointRef{
				ID:             ep.ID,
				Path:           ep.Path,
				EntrypointType: ep.MetaString("entrypointType"),
			})
		}
	}

	for _, af := range result.Affected {
		switch af.Risk {
		case RiskCritical:
			result.Summary.Critical++
		case RiskHigh:
			result.Summary.High++
		case RiskMedium:
			result.Summary.Medium++
		case RiskLow:
			result.Summary.Low++
		}
		result.Summary.Total++
	}
	result.Summary.HasEntrypoints = len(result.Entrypoints) > 0

	result.Meta.TokensEstimate = estimateTokens(result)
	return result
}
