package enhance

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/lsp"
)

type fakeProvider struct {
	symbols     map[string][]lsp.Symbol
	refs        []lsp.Reference
	err         error
	symbolCalls int
	diagCh      chan lsp.FileDiagnostics
}

func (f *fakeProvider) DocumentSymbols(ctx context.Context, path string) ([]lsp.Symbol, error) {
	f.symbolCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.symbols[path], nil
}

func (f *fakeProvider) WorkspaceSymbols(ctx context.Context, query string) ([]lsp.WorkspaceSymbol, error) {
	return nil, f.err
}

func (f *fakeProvider) References(ctx context.Context, path string, line, col int) ([]lsp.Reference, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.refs, nil
}

func (f *fakeProvider) Definition(ctx context.Context, path string, line, col int) ([]lsp.Definition, error) {
	return nil, f.err
}

func (f *fakeProvider) CallHierarchy(ctx context.Context, path string, line, col, depth int) (*lsp.CallHierarchyNode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &lsp.CallHierarchyNode{Name: "fn", Path: path}, nil
}

func (f *fakeProvider) Diagnostics() <-chan lsp.FileDiagnostics { return f.diagCh }

func (f *fakeProvider) Close() error { return nil }

func symbolAt(name string, line int) lsp.Symbol {
	return lsp.Symbol{
		Name:           name,
		Kind:           lsp.KindFunction,
		Range:          lsp.Range{StartLine: line, StartCol: 1, EndLine: line, EndCol: 20},
		SelectionRange: lsp.Range{StartLine: line, StartCol: 10, EndLine: line, EndCol: 16},
	}
}

func orphanIssue(path, symbol string) graph.Issue {
	return graph.Issue{
		ID:       "orphan:" + path + ":" + symbol,
		Kind:     graph.IssueOrphanExport,
		Severity: graph.SeverityWarning,
		Title:    "Exported symbol never imported: " + symbol,
		Meta:     map[string]any{"filePath": path, "symbol": symbol},
	}
}

func TestValidateOrphanRefutedByExternalReference(t *testing.T) {
	s := graph.NewStore()
	p := &fakeProvider{
		symbols: map[string][]lsp.Symbol{
			"src/x.ts": {symbolAt("unused", 3)},
		},
		refs: []lsp.Reference{
			{Path: "src/x.ts", Line: 3, Column: 10, IsDefinition: true},
			{Path: "src/consumer.ts", Line: 8, Column: 5},
		},
	}
	e := New(s, p)

	got := e.ValidateIssues(context.Background(), []graph.Issue{orphanIssue("src/x.ts", "unused")})
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Validated {
		t.Error("externally referenced symbol should refute the orphan finding")
	}
	if got[0].Confidence != graph.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", got[0].Confidence)
	}
}

func TestValidateOrphanConfirmed(t *testing.T) {
	s := graph.NewStore()
	p := &fakeProvider{
		symbols: map[string][]lsp.Symbol{
			"src/x.ts": {symbolAt("unused", 3)},
		},
		refs: []lsp.Reference{
			{Path: "src/x.ts", Line: 3, Column: 10, IsDefinition: true},
		},
	}
	e := New(s, p)

	got := e.ValidateIssues(context.Background(), []graph.Issue{orphanIssue("src/x.ts", "unused")})
	if !got[0].Validated || got[0].Confidence != graph.ConfidenceHigh {
		t.Errorf("got validated=%v confidence=%q, want true/high", got[0].Validated, got[0].Confidence)
	}
}

func TestValidateBrokenChain(t *testing.T) {
	s := graph.NewStore()
	p := &fakeProvider{
		symbols: map[string][]lsp.Symbol{
			"src/auth.ts": {symbolAt("auth", 1)},
		},
	}
	e := New(s, p)

	present := graph.Issue{
		Kind: graph.IssueBrokenExportChain,
		Meta: map[string]any{"filePath": "src/index.ts", "source": "src/auth.ts", "symbol": "auth"},
	}
	absent := graph.Issue{
		Kind: graph.IssueBrokenExportChain,
		Meta: map[string]any{"filePath": "src/index.ts", "source": "src/auth.ts", "symbol": "login"},
	}
	got := e.ValidateIssues(context.Background(), []graph.Issue{present, absent})
	if got[0].Validated {
		t.Error("symbol present in source should refute the broken-chain finding")
	}
	if !got[1].Validated || got[1].Confidence != graph.ConfidenceHigh {
		t.Errorf("absent symbol: validated=%v confidence=%q, want true/high", got[1].Validated, got[1].Confidence)
	}
}

func TestValidateCycleKinds(t *testing.T) {
	s := graph.NewStore()
	p := &fakeProvider{symbols: map[string][]lsp.Symbol{"src/a.ts": {symbolAt("A", 1)}}}
	e := New(s, p)

	issues := []graph.Issue{
		{Kind: graph.IssueCircularDependency, Meta: map[string]any{"filePath": "src/a.ts"}},
		{Kind: graph.IssueHandlerUnreachable, Meta: map[string]any{"filePath": "src/a.ts"}},
	}
	got := e.ValidateIssues(context.Background(), issues)
	for i, v := range got {
		if !v.Validated || v.Confidence != graph.ConfidenceMedium {
			t.Errorf("issue %d: validated=%v confidence=%q, want true/medium", i, v.Validated, v.Confidence)
		}
	}
}

func TestValidateDegradesOnProviderFailure(t *testing.T) {
	s := graph.NewStore()
	p := &fakeProvider{err: errors.New("server not running")}
	e := New(s, p)

	issues := []graph.Issue{
		orphanIssue("src/x.ts", "unused"),
		{Kind: graph.IssueBrokenExportChain, Meta: map[string]any{"source": "src/a.ts", "symbol": "a"}},
		{Kind: graph.IssueCircularReexport, Meta: map[string]any{"filePath": "src/a.ts"}},
	}
	got := e.ValidateIssues(context.Background(), issues)
	if len(got) != len(issues) {
		t.Fatalf("got %d results, want %d", len(got), len(issues))
	}
	for i, v := range got {
		if v.Validated || v.Confidence != graph.ConfidenceLow {
			t.Errorf("issue %d: validated=%v confidence=%q, want false/low", i, v.Validated, v.Confidence)
		}
	}
}

func TestValidateWithoutProvider(t *testing.T) {
	e := New(graph.NewStore(), nil)
	got := e.ValidateIssues(context.Background(), []graph.Issue{orphanIssue("src/x.ts", "unused")})
	if got[0].Validated || got[0].Confidence != graph.ConfidenceLow {
		t.Errorf("got validated=%v confidence=%q, want false/low", got[0].Validated, got[0].Confidence)
	}
}

func TestNodeInfoStructural(t *testing.T) {
	s := graph.NewStore()
	s.AddNode(&graph.Node{
		ID: graph.NodeID(graph.NodeFile, "src/utils.ts"), Kind: graph.NodeFile,
		Name: "utils.ts", Path: "src/utils.ts",
		Meta: map[string]any{"exports": []string{"formatDate", "parseDate"}},
	})
	importers := []string{"src/a.ts", "src/b.ts", "src/c.ts", "src/d.ts", "src/e.ts"}
	for _, p := range importers {
		id := graph.NodeID(graph.NodeFile, p)
		s.AddNode(&graph.Node{ID: id, Kind: graph.NodeFile, Name: p, Path: p})
		s.AddEdge(&graph.Edge{
			ID:   graph.EdgeID(id, graph.NodeID(graph.NodeFile, "src/utils.ts"), graph.EdgeImports),
			From: id, To: graph.NodeID(graph.NodeFile, "src/utils.ts"),
			Kind: graph.EdgeImports, Confidence: graph.ConfidenceHigh,
		})
	}
	s.SetIssues([]graph.Issue{orphanIssue("src/utils.ts", "parseDate")})

	e := New(s, nil)
	info := e.GetNodeInfo(context.Background(), "src/utils.ts")
	if !info.Found {
		t.Fatal("expected node to be found")
	}
	if len(info.ImportedBy) != 5 {
		t.Errorf("importedBy = %d, want 5", len(info.ImportedBy))
	}
	if !info.IsHotspot {
		t.Error("five importers should mark a hotspot")
	}
	if len(info.Exports) != 2 {
		t.Errorf("exports = %v", info.Exports)
	}
	if info.IssueCount != 1 {
		t.Errorf("issueCount = %d, want 1", info.IssueCount)
	}
	if info.LSPAvailable {
		t.Error("no provider attached, LSPAvailable must be false")
	}
}

func TestNodeInfoMissingFile(t *testing.T) {
	e := New(graph.NewStore(), nil)
	info := e.GetNodeInfo(context.Background(), "src/ghost.ts")
	if info.Found {
		t.Error("missing file must not be found")
	}
	if info.Imports == nil || info.ImportedBy == nil || info.Exports == nil {
		t.Error("lists must be empty, not nil")
	}
}

func TestSymbolCacheHit(t *testing.T) {
	s := graph.NewStore()
	s.AddNode(&graph.Node{
		ID: graph.NodeID(graph.NodeFile, "src/a.ts"), Kind: graph.NodeFile,
		Name: "a.ts", Path: "src/a.ts",
	})
	p := &fakeProvider{symbols: map[string][]lsp.Symbol{"src/a.ts": {symbolAt("A", 1)}}}
	e := New(s, p)

	e.GetNodeInfo(context.Background(), "src/a.ts")
	e.GetNodeInfo(context.Background(), "src/a.ts")
	if p.symbolCalls != 1 {
		t.Errorf("symbolCalls = %d, want 1 (second call served from cache)", p.symbolCalls)
	}

	e.ClearFileCache("src/a.ts")
	e.GetNodeInfo(context.Background(), "src/a.ts")
	if p.symbolCalls != 2 {
		t.Errorf("symbolCalls = %d, want 2 after explicit invalidation", p.symbolCalls)
	}
}

func TestNewSkipsConsumerWithoutDiagnosticFeed(t *testing.T) {
	s := graph.NewStore()
	before := runtime.NumGoroutine()
	e := New(s, &fakeProvider{}) // Diagnostics() returns a nil channel
	time.Sleep(10 * time.Millisecond)
	// the symbol cache's expiry loop accounts for one goroutine
	if after := runtime.NumGoroutine(); after > before+1 {
		t.Errorf("goroutines grew %d -> %d; no consumer should start without a feed", before, after)
	}
	if !e.Available() {
		t.Error("provider should still be attached")
	}
	if issues := e.SyncDiagnosticsToIssues(); len(issues) != 0 {
		t.Errorf("expected no synced diagnostics, got %d", len(issues))
	}
}

// gatedProvider blocks DocumentSymbols until released, counting calls.
type gatedProvider struct {
	fakeProvider
	gate  chan struct{}
	calls atomic.Int32
}

func (g *gatedProvider) DocumentSymbols(ctx context.Context, path string) ([]lsp.Symbol, error) {
	g.calls.Add(1)
	<-g.gate
	return []lsp.Symbol{symbolAt("A", 1)}, nil
}

func TestConcurrentSymbolFetchCollapses(t *testing.T) {
	s := graph.NewStore()
	s.AddNode(&graph.Node{
		ID: graph.NodeID(graph.NodeFile, "src/a.ts"), Kind: graph.NodeFile,
		Name: "a.ts", Path: "src/a.ts",
	})
	p := &gatedProvider{gate: make(chan struct{})}
	e := New(s, p)

	const requests = 8
	var started, finished sync.WaitGroup
	started.Add(requests)
	finished.Add(requests)
	for i := 0; i < requests; i++ {
		go func() {
			defer finished.Done()
			started.Done()
			info := e.GetNodeInfo(context.Background(), "src/a.ts")
			if len(info.Symbols) != 1 {
				t.Errorf("expected cached symbols in every result, got %d", len(info.Symbols))
			}
		}()
	}
	started.Wait()
	close(p.gate)
	finished.Wait()

	if got := p.calls.Load(); got != 1 {
		t.Errorf("DocumentSymbols calls = %d, want 1 for concurrent misses on one file", got)
	}
}

func TestSyncDiagnosticsToIssues(t *testing.T) {
	p := &fakeProvider{diagCh: make(chan lsp.FileDiagnostics, 1)}
	e := New(graph.NewStore(), p)

	p.diagCh <- lsp.FileDiagnostics{
		Path: "src/a.ts",
		Diagnostics: []lsp.Diagnostic{
			{Severity: lsp.DiagError, Message: "Cannot find name 'foo'", Range: lsp.Range{StartLine: 3, StartCol: 1}, Code: "2304"},
			{Severity: lsp.DiagWarning, Message: "unused variable", Range: lsp.Range{StartLine: 7, StartCol: 1}},
			{Severity: lsp.DiagHint, Message: "convert to arrow function", Range: lsp.Range{StartLine: 9, StartCol: 1}},
		},
	}
	close(p.diagCh)

	deadline := time.Now().Add(2 * time.Second)
	var issues []graph.Issue
	for time.Now().Before(deadline) {
		issues = e.SyncDiagnosticsToIssues()
		if len(issues) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2 (hint dropped)", len(issues))
	}
	for _, issue := range issues {
		if issue.Kind != graph.IssueDiagnostic {
			t.Errorf("kind = %q, want %q", issue.Kind, graph.IssueDiagnostic)
		}
		if issue.Meta["filePath"] != "src/a.ts" {
			t.Errorf("filePath = %v", issue.Meta["filePath"])
		}
	}
	if issues[0].Severity != graph.SeverityError || issues[1].Severity != graph.SeverityWarning {
		t.Errorf("severities = %q, %q", issues[0].Severity, issues[1].Severity)
	}
}

func TestCallHierarchyDefaultDepth(t *testing.T) {
	p := &fakeProvider{}
	e := New(graph.NewStore(), p)
	node, err := e.CallHierarchy(context.Background(), "src/a.ts", 1, 1, 0)
	if err != nil {
		t.Fatalf("CallHierarchy: %v", err)
	}
	if node == nil || node.Path != "src/a.ts" {
		t.Errorf("node = %+v", node)
	}
}

func TestPassThroughsWithoutProvider(t *testing.T) {
	e := New(graph.NewStore(), nil)
	if _, err := e.CallHierarchy(context.Background(), "a.ts", 1, 1, 2); err == nil {
		t.Error("CallHierarchy without provider should error")
	}
	if _, err := e.Definition(context.Background(), "a.ts", 1, 1); err == nil {
		t.Error("Definition without provider should error")
	}
	if _, err := e.FindReferences(context.Background(), "a.ts", 1, 1); err == nil {
		t.Error("FindReferences without provider should error")
	}
}
