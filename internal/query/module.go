package query

import "github.com/depscope/depscope-mcp/internal/graph"

// ModuleRef is a compact node reference used in module dossiers.
type ModuleRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Name string `json:"name"`
}

// EntrypointRef annotates an entrypoint node with its detected type.
type EntrypointRef struct {
	ID             string `json:"id"`
	Path           string `json:"path"`
	EntrypointType string `json:"entrypointType,omitempty"`
}

// ModuleResult is the single-node dossier returned by Module.
type ModuleResult struct {
	Found       bool            `json:"found"`
	Path        string          `json:"path"`
	Imports     []ModuleRef     `json:"imports"`
	ImportedBy  []ModuleRef     `json:"importedBy"`
	Exports     []string        `json:"exports"`
	IsBarrel    bool            `json:"isBarrel"`
	Entrypoints []EntrypointRef `json:"entrypoints"`
	Meta        Meta            `json:"meta"`
}

// Module builds a dossier for one file: what it imports, what imports
// it, its exports, whether it is a barrel, and entrypoints registered on
// its path. Only imports-kind edges count toward Imports/ImportedBy. A
// missing module yields empty lists, no error.
func (e *Engine) Module(path string) *ModuleResult {
	result := &ModuleResult{
		Path:        path,
		Imports:     []ModuleRef{},
		ImportedBy:  []ModuleRef{},
		Exports:     []string{},
		Entrypoints: []EntrypointRef{},
	}

	node := e.store.ResolveNode(path)
	if node == nil {
		result.Meta.TokensEstimate = estimateTokens(result)
		return result
	}
	result.Found = true
	result.Path = node.Path

	for _, edge := range e.store.GetEdgesFrom(node.ID) {
		switch edge.Kind {
		case graph.EdgeImports:
			result.Imports = append(result.Imports, e.refFor(edge.To))
		case graph.EdgeReexports:
			result.IsBarrel = true
		}
	}
	for _, edge := range e.store.GetEdgesTo(node.ID) {
		if edge.Kind == graph.EdgeImports {
			result.ImportedBy = append(result.ImportedBy, e.refFor(edge.From))
		}
	}

	if exports := node.MetaStrings("exports"); exports != nil {
		result.Exports = exports
	}
	if node.MetaString("entrypointType") == "barrel" {
		result.IsBarrel = true
	}

	for _, ep := range e.store.GetNodesByKind(graph.NodeEntrypoint) {
		if ep.Path == node.Path {
			result.Entrypoints = append(result.Entrypoints, EntrypointRef{
				ID:             ep.ID,
				Path:           ep.Path,
				EntrypointType: ep.MetaString("entrypointType"),
			})
		}
	}

	result.Meta.TokensEstimate = estimateTokens(result)
	return result
}

// refFor builds a ModuleRef for a node id, tolerating dangling targets.
func (e *Engine) refFor(nodeID string) ModuleRef {
	if n := e.store.GetNode(nodeID); n != nil {
		return ModuleRef{ID: n.ID, Path: n.Path, Name: n.Name}
	}
	return ModuleRef{ID: nodeID}
}
