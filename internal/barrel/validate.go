package barrel

import (
	"fmt"
	"sort"

	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/resolve"
)

// ValidateReexports checks each of a file's re-export statements against
// the graph: the source must resolve to a known file node, and named
// symbols must appear in the source's export list when that list is
// known. Wildcard re-exports are never validated against named lists —
// they cannot be disproven, so no issue is emitted for them.
func (a *Analyzer) ValidateReexports(path, content string) []graph.Issue {
	return a.validateAnalysis(a.AnalyzeFile(path, content))
}

// ValidateAll validates every analysis currently in the cache, ordered
// by file path.
func (a *Analyzer) ValidateAll() []graph.Issue {
	a.mu.Lock()
	paths := make([]string, 0, len(a.cache))
	analyses := make(map[string]*Analysis, len(a.cache))
	for path, entry := range a.cache {
		paths = append(paths, path)
		analyses[path] = entry.analysis
	}
	a.mu.Unlock()
	sort.Strings(paths)

	var issues []graph.Issue
	for _, path := range paths {
		issues = append(issues, a.validateAnalysis(analyses[path])...)
	}
	return issues
}

func (a *Analyzer) validateAnalysis(analysis *Analysis) []graph.Issue {
	path := analysis.FilePath

	var issues []graph.Issue
	for _, entry := range analysis.Reexports {
		if !resolve.IsRelative(entry.Source) {
			// package re-exports are outside the repository graph
			continue
		}
		source := resolve.File(a.store, path, entry.Source)
		if source == nil {
			issues = append(issues, graph.Issue{
				ID:       fmt.Sprintf("broken-export:%s:%s", path, entry.Source),
				Kind:     graph.IssueBrokenExportChain,
				Severity: graph.SeverityError,
				Title:    fmt.Sprintf("Re-export source not found: %s", entry.Source),
				Message:  fmt.Sprintf("%s re-exports from %q, which does not resolve to any file in the graph", path, entry.Source),
				Meta:     map[string]any{"filePath": path, "source": entry.Source},
				Evidence: []string{fmt.Sprintf("export ... from '%s'", entry.Source)},
			})
			continue
		}
		if entry.Wildcard {
			continue
		}

		exports := source.MetaStrings("exports")
		if exports == nil {
			// export list unknown; nothing to disprove
			continue
		}
		known := make(map[string]bool, len(exports))
		for _, e := range exports {
			known[e] = true
		}
		for _, sym := range entry.Symbols {
			if known[sym.Name] {
				continue
			}
			issues = append(issues, graph.Issue{
				ID:       fmt.Sprintf("broken-export:%s:%s:%s", path, entry.Source, sym.Name),
				Kind:     graph.IssueBrokenExportChain,
				Severity: graph.SeverityError,
				Title:    fmt.Sprintf("Re-exported symbol missing: %s", sym.Name),
				Message:  fmt.Sprintf("%s re-exports %q from %s, but %s does not export it", path, sym.Name, source.Path, source.Path),
				Meta:     map[string]any{"filePath": path, "symbol": sym.Name, "source": source.Path},
				Evidence: []string{fmt.Sprintf("export { %s } from '%s'", sym.Name, entry.Source)},
			})
		}
	}
	return issues
}
