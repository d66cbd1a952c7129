package enhance

import (
	"fmt"
	"sort"

	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/lsp"
)

// SyncDiagnosticsToIssues reshapes the cached editor diagnostics into
// the issue view so both evidence sources merge in one list. Info and
// hint severities are dropped. Output is ordered by file then position.
func (e *Enhancer) SyncDiagnosticsToIssues() []graph.Issue {
	e.diagMu.RLock()
	paths := make([]string, 0, len(e.diags))
	for path := range e.diags {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var issues []graph.Issue
	for _, path := range paths {
		for _, d := range e.diags[path] {
			if d.Severity != lsp.DiagError && d.Severity != lsp.DiagWarning {
				continue
			}
			issues = append(issues, diagnosticIssue(path, d))
		}
	}
	e.diagMu.RUnlock()
	return issues
}

func diagnosticIssue(path string, d lsp.Diagnostic) graph.Issue {
	severity := graph.SeverityWarning
	if d.Severity == lsp.DiagError {
		severity = graph.SeverityError
	}
	meta := map[string]any{
		"filePath":  path,
		"startLine": d.Range.StartLine,
		"startCol":  d.Range.StartCol,
		"endLine":   d.Range.EndLine,
		"endCol":    d.Range.EndCol,
	}
	if d.Source != "" {
		meta["source"] = d.Source
	}
	if d.Code != "" {
		meta["code"] = d.Code
	}
	return graph.Issue{
		ID:       fmt.Sprintf("diagnostic:%s:%d:%d:%s", path, d.Range.StartLine, d.Range.StartCol, d.Code),
		Kind:     graph.IssueDiagnostic,
		Severity: severity,
		Title:    d.Message,
		Message:  fmt.Sprintf("%s:%d:%d: %s", path, d.Range.StartLine, d.Range.StartCol, d.Message),
		Meta:     meta,
	}
}
