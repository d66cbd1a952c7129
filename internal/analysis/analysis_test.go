package analysis

import (
	"testing"

	"github.com/depscope/depscope-mcp/internal/barrel"
	"github.com/depscope/depscope-mcp/internal/graph"
)

func addFile(s *graph.Store, path string, exports ...string) *graph.Node {
	n := &graph.Node{
		ID:   graph.NodeID(graph.NodeFile, path),
		Kind: graph.NodeFile,
		Name: path,
		Path: path,
	}
	if len(exports) > 0 {
		n.Meta = map[string]any{"exports": exports}
	}
	s.AddNode(n)
	return n
}

func addImport(s *graph.Store, from, to string) {
	fromID := graph.NodeID(graph.NodeFile, from)
	toID := graph.NodeID(graph.NodeFile, to)
	s.AddEdge(&graph.Edge{
		ID:   graph.EdgeID(fromID, toID, graph.EdgeImports),
		From: fromID, To: toID,
		Kind: graph.EdgeImports, Confidence: graph.ConfidenceHigh,
	})
}

func TestDetectImportCycles(t *testing.T) {
	s := graph.NewStore()
	for _, p := range []string{"src/a.ts", "src/b.ts", "src/c.ts", "src/d.ts"} {
		addFile(s, p)
	}
	addImport(s, "src/a.ts", "src/b.ts")
	addImport(s, "src/b.ts", "src/c.ts")
	addImport(s, "src/c.ts", "src/a.ts")
	addImport(s, "src/c.ts", "src/d.ts")

	issues := DetectImportCycles(s)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(issues), issues)
	}
	if issues[0].Kind != graph.IssueCircularDependency {
		t.Errorf("kind = %q", issues[0].Kind)
	}
	if len(issues[0].Evidence) != 3 {
		t.Errorf("evidence = %v, want the 3-file cycle", issues[0].Evidence)
	}
}

func TestDetectImportCyclesAcyclic(t *testing.T) {
	s := graph.NewStore()
	addFile(s, "src/a.ts")
	addFile(s, "src/b.ts")
	addImport(s, "src/a.ts", "src/b.ts")
	if issues := DetectImportCycles(s); len(issues) != 0 {
		t.Errorf("acyclic graph produced %+v", issues)
	}
}

func TestDetectImportCyclesDedup(t *testing.T) {
	// a <-> b entered from both sides must yield one issue
	s := graph.NewStore()
	addFile(s, "src/a.ts")
	addFile(s, "src/b.ts")
	addImport(s, "src/a.ts", "src/b.ts")
	addImport(s, "src/b.ts", "src/a.ts")
	if issues := DetectImportCycles(s); len(issues) != 1 {
		t.Errorf("got %d issues, want 1", len(issues))
	}
}

func TestDetectOrphanExports(t *testing.T) {
	s := graph.NewStore()
	addFile(s, "src/used.ts", "a")
	addFile(s, "src/unused.ts", "b", "c")
	addFile(s, "src/main.ts")
	addImport(s, "src/main.ts", "src/used.ts")

	issues := DetectOrphanExports(s)
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %+v", len(issues), issues)
	}
	for _, issue := range issues {
		if issue.Meta["filePath"] != "src/unused.ts" {
			t.Errorf("unexpected orphan file %v", issue.Meta["filePath"])
		}
	}
}

func TestDetectOrphanExportsFileGranular(t *testing.T) {
	s := graph.NewStore()
	addFile(s, "src/utils.ts", "formatDate", "parseDate")
	addFile(s, "src/main.ts")
	addImport(s, "src/main.ts", "src/utils.ts")

	// A single importer clears every export of the file; whether the
	// importer actually uses parseDate is the enhancer's call.
	if issues := DetectOrphanExports(s); len(issues) != 0 {
		t.Errorf("imported file's exports flagged as orphans: %+v", issues)
	}
}

func TestDetectOrphanExportsSkipsEntrypoints(t *testing.T) {
	s := graph.NewStore()
	addFile(s, "src/main.ts", "run")
	s.AddNode(&graph.Node{
		ID:   graph.NodeID(graph.NodeEntrypoint, "src/main.ts"),
		Kind: graph.NodeEntrypoint,
		Name: "main.ts", Path: "src/main.ts",
		Meta: map[string]any{"entrypointType": "cli"},
	})
	if issues := DetectOrphanExports(s); len(issues) != 0 {
		t.Errorf("entrypoint exports flagged as orphans: %+v", issues)
	}
}

func TestDetectUnreachableHandlers(t *testing.T) {
	s := graph.NewStore()
	addFile(s, "src/api/users.ts", "default")
	s.AddNode(&graph.Node{
		ID:   graph.NodeID(graph.NodeEntrypoint, "src/api/users.ts"),
		Kind: graph.NodeEntrypoint,
		Name: "users.ts", Path: "src/api/users.ts",
		Meta: map[string]any{"entrypointType": "handler"},
	})
	s.AddNode(&graph.Node{
		ID:   graph.NodeID(graph.NodeEntrypoint, "src/api/gone.ts"),
		Kind: graph.NodeEntrypoint,
		Name: "gone.ts", Path: "src/api/gone.ts",
		Meta: map[string]any{"entrypointType": "handler"},
	})

	issues := DetectUnreachableHandlers(s)
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %+v", len(issues), issues)
	}
	kinds := map[graph.IssueKind]bool{}
	for _, issue := range issues {
		kinds[issue.Kind] = true
	}
	if !kinds[graph.IssueHandlerUnreachable] || !kinds[graph.IssueEntryMissingHandler] {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestDetectUnreachableHandlersImportedHandlerOK(t *testing.T) {
	s := graph.NewStore()
	addFile(s, "src/api/users.ts", "default")
	addFile(s, "src/router.ts")
	addImport(s, "src/router.ts", "src/api/users.ts")
	s.AddNode(&graph.Node{
		ID:   graph.NodeID(graph.NodeEntrypoint, "src/api/users.ts"),
		Kind: graph.NodeEntrypoint,
		Name: "users.ts", Path: "src/api/users.ts",
		Meta: map[string]any{"entrypointType": "handler"},
	})
	if issues := DetectUnreachableHandlers(s); len(issues) != 0 {
		t.Errorf("imported handler flagged: %+v", issues)
	}
}

func TestDetectDanglingEdges(t *testing.T) {
	s := graph.NewStore()
	addFile(s, "src/a.ts")
	aID := graph.NodeID(graph.NodeFile, "src/a.ts")
	ghostID := graph.NodeID(graph.NodeFile, "src/ghost.ts")
	s.AddEdge(&graph.Edge{
		ID:   graph.EdgeID(aID, ghostID, graph.EdgeDynamic),
		From: aID, To: ghostID,
		Kind: graph.EdgeDynamic, Confidence: graph.ConfidenceLow,
		Meta: map[string]any{"specifier": "./ghost"},
	})

	issues := DetectDanglingEdges(s)
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].Kind != graph.IssueDynamicEdgeUnknown || issues[0].Severity != graph.SeverityInfo {
		t.Errorf("issue = %+v", issues[0])
	}
}

func TestRunReplacesIssueSet(t *testing.T) {
	s := graph.NewStore()
	s.SetIssues([]graph.Issue{{ID: "stale", Kind: graph.IssueOrphanExport}})

	addFile(s, "src/a.ts")
	addFile(s, "src/b.ts")
	addImport(s, "src/a.ts", "src/b.ts")
	addImport(s, "src/b.ts", "src/a.ts")

	analyzer := barrel.NewAnalyzer(s)
	issues := Run(s, analyzer)
	if len(issues) != 1 || issues[0].Kind != graph.IssueCircularDependency {
		t.Fatalf("issues = %+v", issues)
	}
	stored := s.GetIssues()
	if len(stored) != 1 || stored[0].ID == "stale" {
		t.Errorf("stale issue survived the replace: %+v", stored)
	}
}
