package enhance

import (
	"context"
	"log/slog"

	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/lsp"
)

// ValidatedIssue is an issue after corroboration against live symbol
// evidence. Validated false with high confidence means the structural
// finding was refuted; low confidence means the check itself failed.
type ValidatedIssue struct {
	graph.Issue
	Validated  bool             `json:"validated"`
	Confidence graph.Confidence `json:"confidence"`
	Note       string           `json:"note,omitempty"`
}

// ValidateIssues corroborates each issue against the symbol provider.
// It always returns exactly one ValidatedIssue per input and never
// returns an error: provider failures degrade that issue to
// Validated false, Confidence low.
func (e *Enhancer) ValidateIssues(ctx context.Context, issues []graph.Issue) []ValidatedIssue {
	out := make([]ValidatedIssue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, e.validateOne(ctx, issue))
	}
	return out
}

func (e *Enhancer) validateOne(ctx context.Context, issue graph.Issue) ValidatedIssue {
	if e.provider == nil {
		return ValidatedIssue{
			Issue:      issue,
			Validated:  false,
			Confidence: graph.ConfidenceLow,
			Note:       "no symbol provider attached",
		}
	}

	switch issue.Kind {
	case graph.IssueOrphanExport:
		return e.validateOrphanExport(ctx, issue)
	case graph.IssueBrokenExportChain:
		return e.validateBrokenChain(ctx, issue)
	case graph.IssueCircularDependency, graph.IssueCircularReexport:
		return e.validateCycle(ctx, issue)
	default:
		// no cheap corroboration exists; trust structural analysis
		return ValidatedIssue{Issue: issue, Validated: true, Confidence: graph.ConfidenceMedium}
	}
}

// validateOrphanExport looks for references to the flagged symbol from
// outside its declaring file. Any external reference refutes the issue.
func (e *Enhancer) validateOrphanExport(ctx context.Context, issue graph.Issue) ValidatedIssue {
	path, _ := issue.Meta["filePath"].(string)
	symbol, _ := issue.Meta["symbol"].(string)
	if path == "" || symbol == "" {
		return degraded(issue, "issue carries no file path or symbol")
	}

	loc, err := e.symbolLocation(ctx, path, symbol)
	if err != nil {
		slog.Warn("enhance.validate.err", "kind", issue.Kind, "path", path, "err", err)
		return degraded(issue, err.Error())
	}
	if loc == nil {
		// declared symbol not visible to the server; cannot corroborate
		return degraded(issue, "symbol not found by provider")
	}

	refs, err := e.provider.References(ctx, path, loc.StartLine, loc.StartCol)
	if err != nil {
		slog.Warn("enhance.validate.err", "kind", issue.Kind, "path", path, "err", err)
		return degraded(issue, err.Error())
	}
	for _, ref := range refs {
		if ref.Path != path {
			return ValidatedIssue{
				Issue:      issue,
				Validated:  false,
				Confidence: graph.ConfidenceHigh,
				Note:       "referenced from " + ref.Path,
			}
		}
	}
	return ValidatedIssue{Issue: issue, Validated: true, Confidence: graph.ConfidenceHigh}
}

// validateBrokenChain checks whether the allegedly missing symbol is in
// fact present in the source file, which would mean the graph's export
// list was stale.
func (e *Enhancer) validateBrokenChain(ctx context.Context, issue graph.Issue) ValidatedIssue {
	source, _ := issue.Meta["source"].(string)
	symbol, _ := issue.Meta["symbol"].(string)
	if source == "" {
		return degraded(issue, "issue carries no source path")
	}
	if symbol == "" {
		// unresolvable-source variant; symbols cannot settle it
		return ValidatedIssue{Issue: issue, Validated: true, Confidence: graph.ConfidenceMedium}
	}

	loc, err := e.symbolLocation(ctx, source, symbol)
	if err != nil {
		slog.Warn("enhance.validate.err", "kind", issue.Kind, "path", source, "err", err)
		return degraded(issue, err.Error())
	}
	if loc != nil {
		return ValidatedIssue{
			Issue:      issue,
			Validated:  false,
			Confidence: graph.ConfidenceHigh,
			Note:       "symbol present in " + source,
		}
	}
	return ValidatedIssue{Issue: issue, Validated: true, Confidence: graph.ConfidenceHigh}
}

// validateCycle cannot refute a structural cycle; it only confirms the
// involved file still yields symbols.
func (e *Enhancer) validateCycle(ctx context.Context, issue graph.Issue) ValidatedIssue {
	path, _ := issue.Meta["filePath"].(string)
	if path == "" {
		return ValidatedIssue{Issue: issue, Validated: true, Confidence: graph.ConfidenceMedium}
	}
	if _, err := e.symbolsFor(ctx, path); err != nil {
		slog.Warn("enhance.validate.err", "kind", issue.Kind, "path", path, "err", err)
		return degraded(issue, err.Error())
	}
	return ValidatedIssue{Issue: issue, Validated: true, Confidence: graph.ConfidenceMedium}
}

func degraded(issue graph.Issue, note string) ValidatedIssue {
	return ValidatedIssue{
		Issue:      issue,
		Validated:  false,
		Confidence: graph.ConfidenceLow,
		Note:       note,
	}
}

// symbolLocation finds a named symbol in a file's symbol tree and
// returns its selection range, nil when absent.
func (e *Enhancer) symbolLocation(ctx context.Context, path, name string) (*lsp.Range, error) {
	symbols, err := e.symbolsFor(ctx, path)
	if err != nil {
		return nil, err
	}
	return findSymbol(symbols, name), nil
}

func findSymbol(symbols []lsp.Symbol, name string) *lsp.Range {
	for i := range symbols {
		s := &symbols[i]
		if s.Name == name {
			r := s.SelectionRange
			return &r
		}
		if found := findSymbol(s.Children, name); found != nil {
			return found
		}
	}
	return nil
}
