package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/depscope/depscope-mcp/internal/barrel"
	"github.com/depscope/depscope-mcp/internal/graph"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "export const a = 1;")
	writeFile(t, root, "src/view.tsx", "export const v = 1;")
	writeFile(t, root, "lib/util.js", "module.exports = {};")
	writeFile(t, root, "node_modules/pkg/index.js", "x")
	writeFile(t, root, "dist/bundle.js", "x")
	writeFile(t, root, "src/types.d.ts", "declare const x: number;")
	writeFile(t, root, "README.md", "hi")

	files, err := Discover(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := map[string]bool{}
	for _, f := range files {
		got[f.RelPath] = true
	}
	for _, want := range []string{"src/app.ts", "src/view.tsx", "lib/util.js"} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	for _, skip := range []string{"node_modules/pkg/index.js", "dist/bundle.js", "src/types.d.ts", "README.md"} {
		if got[skip] {
			t.Errorf("%s should have been skipped", skip)
		}
	}
}

func TestDiscoverHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n*.gen.ts\n")
	writeFile(t, root, "src/app.ts", "export const a = 1;")
	writeFile(t, root, "src/schema.gen.ts", "export const s = 1;")
	writeFile(t, root, "generated/client.ts", "export const c = 1;")

	files, err := Discover(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "src/app.ts" {
		t.Errorf("files = %+v, want only src/app.ts", files)
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/small.ts", "export const a = 1;")
	writeFile(t, root, "src/big.ts", string(make([]byte, 4096)))

	files, err := Discover(context.Background(), root, &DiscoverOptions{MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "src/small.ts" {
		t.Errorf("files = %+v, want only src/small.ts", files)
	}
}

func testWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "src/user.ts", `export function getUser(id: string) { return id; }
export const userRole = 'admin';
`)
	writeFile(t, root, "src/app.ts", `import { getUser } from './user';
export const app = getUser('1');
`)
	writeFile(t, root, "src/index.ts", `export * from './user';
export { app } from './app';
`)
	writeFile(t, root, "src/lazy.ts", `export async function load() {
	return import('./app');
}
`)
	return root
}

func TestCrawlerRun(t *testing.T) {
	root := testWorkspace(t)
	s := graph.NewStore()
	c := New(s, barrel.NewAnalyzer(s), root, Options{Workers: 2})

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Files != 4 {
		t.Errorf("files = %d, want 4", stats.Files)
	}

	user := s.GetNode(graph.NodeID(graph.NodeFile, "src/user.ts"))
	if user == nil {
		t.Fatal("src/user.ts node missing")
	}
	exports := user.MetaStrings("exports")
	if len(exports) != 2 {
		t.Errorf("user exports = %v, want [getUser userRole]", exports)
	}

	if s.GetNode(graph.NodeID(graph.NodeDirectory, "src")) == nil {
		t.Error("directory node src missing")
	}

	appID := graph.NodeID(graph.NodeFile, "src/app.ts")
	var foundImport bool
	for _, e := range s.GetEdgesFrom(appID) {
		if e.Kind == graph.EdgeImports && e.To == user.ID {
			foundImport = true
		}
	}
	if !foundImport {
		t.Error("expected imports edge src/app.ts -> src/user.ts")
	}

	indexID := graph.NodeID(graph.NodeFile, "src/index.ts")
	reexports := 0
	for _, e := range s.GetEdgesFrom(indexID) {
		if e.Kind == graph.EdgeReexports {
			reexports++
		}
	}
	if reexports != 2 {
		t.Errorf("reexport edges from src/index.ts = %d, want 2", reexports)
	}

	entry := s.GetNode(graph.NodeID(graph.NodeEntrypoint, "src/index.ts"))
	if entry == nil {
		t.Fatal("barrel entrypoint node missing")
	}
	if entry.MetaString("entrypointType") != EntrypointBarrel {
		t.Errorf("entrypointType = %q, want barrel", entry.MetaString("entrypointType"))
	}

	lazyID := graph.NodeID(graph.NodeFile, "src/lazy.ts")
	var dynamic *graph.Edge
	for _, e := range s.GetEdgesFrom(lazyID) {
		if e.Kind == graph.EdgeDynamic {
			dynamic = e
		}
	}
	if dynamic == nil {
		t.Fatal("expected dynamic edge from src/lazy.ts")
	}
	if dynamic.Confidence != graph.ConfidenceLow {
		t.Errorf("dynamic edge confidence = %q, want low", dynamic.Confidence)
	}
}

func TestIndexFileChange(t *testing.T) {
	root := testWorkspace(t)
	s := graph.NewStore()
	c := New(s, barrel.NewAnalyzer(s), root, Options{})
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	writeFile(t, root, "src/user.ts", `export function getUser(id: string) { return id; }
`)
	if err := c.IndexFile("src/user.ts"); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	user := s.GetNode(graph.NodeID(graph.NodeFile, "src/user.ts"))
	if user == nil {
		t.Fatal("node missing after reindex")
	}
	exports := user.MetaStrings("exports")
	if len(exports) != 1 || exports[0] != "getUser" {
		t.Errorf("exports after reindex = %v, want [getUser]", exports)
	}
}

func TestIndexFileDeleted(t *testing.T) {
	root := testWorkspace(t)
	s := graph.NewStore()
	c := New(s, barrel.NewAnalyzer(s), root, Options{})
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "src", "app.ts")); err != nil {
		t.Fatal(err)
	}
	if err := c.IndexFile("src/app.ts"); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if s.GetNode(graph.NodeID(graph.NodeFile, "src/app.ts")) != nil {
		t.Error("deleted file should leave the graph")
	}
}
