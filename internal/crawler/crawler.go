// Package crawler populates the dependency graph from workspace source
// files: discovery, tree-sitter extraction, node and edge emission.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/depscope/depscope-mcp/internal/barrel"
	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/lang"
	"github.com/depscope/depscope-mcp/internal/resolve"
)

// Options configures a crawl.
type Options struct {
	Workers     int
	Ignore      []string
	MaxFileSize int64
}

// DefaultWorkers bounds parse parallelism when Options.Workers is zero.
const DefaultWorkers = 8

// Stats summarizes one crawl.
type Stats struct {
	Files    int           `json:"files"`
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	Duration time.Duration `json:"-"`
}

// Crawler indexes a workspace into a graph store. Parsing runs in
// parallel; all store writes happen on the calling goroutine.
type Crawler struct {
	store  *graph.Store
	barrel *barrel.Analyzer
	root   string
	opts   Options
}

// New builds a crawler over a store and barrel analyzer for a workspace
// root.
func New(store *graph.Store, analyzer *barrel.Analyzer, root string, opts Options) *Crawler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Crawler{store: store, barrel: analyzer, root: root, opts: opts}
}

type parsedFile struct {
	info    FileInfo
	content string
	hash    uint64
	facts   *FileFacts
}

// Run discovers, parses, and indexes the whole workspace.
func (c *Crawler) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	slog.Info("crawl.start", "root", c.root)

	files, err := Discover(ctx, c.root, &DiscoverOptions{
		Ignore:      c.opts.Ignore,
		MaxFileSize: c.opts.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	results := make([]*parsedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := c.parseOne(f)
			if err != nil {
				slog.Warn("crawl.parse.err", "path", f.RelPath, "err", err)
				return nil
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}

	// nodes first so edge resolution sees every file, then edges
	parsed := 0
	for _, p := range results {
		if p == nil {
			continue
		}
		parsed++
		c.indexNodes(p)
	}
	for _, p := range results {
		if p != nil {
			c.indexEdges(p)
		}
	}

	stats := &Stats{
		Files:    parsed,
		Nodes:    c.store.NodeCount(),
		Edges:    c.store.EdgeCount(),
		Duration: time.Since(start),
	}
	slog.Info("crawl.done",
		"files", stats.Files, "nodes", stats.Nodes, "edges", stats.Edges,
		"duration", stats.Duration)
	return stats, nil
}

// IndexFile re-indexes a single file after a change: prior nodes and
// outgoing edges are dropped, caches invalidated, and the file is
// parsed fresh. A read failure removes the file from the graph (it was
// deleted or became unreadable).
func (c *Crawler) IndexFile(relPath string) error {
	c.store.RemoveFile(relPath)
	c.barrel.ClearFileCache(relPath)

	info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(relPath)))
	if err != nil {
		slog.Info("crawl.file.removed", "path", relPath)
		return nil
	}
	l, ok := languageFor(relPath)
	if !ok {
		return nil
	}
	p, err := c.parseOne(FileInfo{
		Path:     filepath.Join(c.root, filepath.FromSlash(relPath)),
		RelPath:  relPath,
		Size:     info.Size(),
		Language: l,
	})
	if err != nil {
		return fmt.Errorf("reindex %s: %w", relPath, err)
	}
	c.indexNodes(p)
	c.indexEdges(p)
	return nil
}

func (c *Crawler) parseOne(f FileInfo) (*parsedFile, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	facts, err := Extract(f.Language, data)
	if err != nil {
		return nil, err
	}
	return &parsedFile{
		info:    f,
		content: string(data),
		hash:    xxh3.Hash(data),
		facts:   facts,
	}, nil
}

// indexNodes emits the file node, its ancestor directory nodes, and an
// entrypoint node when the file classifies as one.
func (c *Crawler) indexNodes(p *parsedFile) {
	rel := p.info.RelPath
	meta := map[string]any{
		"language":    string(p.info.Language),
		"contentHash": fmt.Sprintf("%016x", p.hash),
	}
	if len(p.facts.Exports) > 0 {
		meta["exports"] = p.facts.Exports
	}
	c.store.AddNode(&graph.Node{
		ID:   graph.NodeID(graph.NodeFile, rel),
		Kind: graph.NodeFile,
		Name: path.Base(rel),
		Path: rel,
		Meta: meta,
	})

	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		c.store.AddNode(&graph.Node{
			ID:   graph.NodeID(graph.NodeDirectory, dir),
			Kind: graph.NodeDirectory,
			Name: path.Base(dir),
			Path: dir,
		})
	}

	analysis := c.barrel.AnalyzeFile(rel, p.content)
	if et := entrypointType(rel, p.facts, analysis.IsBarrel); et != "" {
		c.store.AddNode(&graph.Node{
			ID:   graph.NodeID(graph.NodeEntrypoint, rel),
			Kind: graph.NodeEntrypoint,
			Name: path.Base(rel),
			Path: rel,
			Meta: map[string]any{"entrypointType": et},
		})
	}
}

// indexEdges emits import, dynamic-import, and re-export edges for one
// file. Unresolvable relative targets still get a stable candidate id;
// the edge dangles.
func (c *Crawler) indexEdges(p *parsedFile) {
	rel := p.info.RelPath
	fromID := graph.NodeID(graph.NodeFile, rel)

	for _, imp := range p.facts.Imports {
		if !resolve.IsRelative(imp.Spec) {
			// package imports are outside the workspace graph
			continue
		}
		toID := c.importTargetID(rel, imp.Spec)
		kind, confidence := graph.EdgeImports, graph.ConfidenceHigh
		if imp.Dynamic {
			kind, confidence = graph.EdgeDynamic, graph.ConfidenceLow
		}
		c.store.AddEdge(&graph.Edge{
			ID:         graph.EdgeID(fromID, toID, kind),
			From:       fromID,
			To:         toID,
			Kind:       kind,
			Confidence: confidence,
			Meta:       map[string]any{"specifier": imp.Spec},
		})
	}

	for _, e := range c.barrel.CreateBarrelEdges(rel, p.content) {
		c.store.AddEdge(e)
	}
}

func (c *Crawler) importTargetID(fromPath, spec string) string {
	if n := resolve.File(c.store, fromPath, spec); n != nil {
		return n.ID
	}
	if cands := resolve.Candidates(fromPath, spec); len(cands) > 0 {
		return graph.NodeID(graph.NodeFile, cands[0])
	}
	return graph.NodeID(graph.NodeFile, spec)
}

func languageFor(relPath string) (lang.Language, bool) {
	return lang.LanguageForExtension(path.Ext(relPath))
}
