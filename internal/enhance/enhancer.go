package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/depscope/depscope-mcp/internal/graph"
	"github.com/depscope/depscope-mcp/internal/lsp"
)

const (
	// symbolTTL bounds how long a file's symbol snapshot is served
	// without a fresh language-server round trip.
	symbolTTL = 30 * time.Second

	symbolCacheSize = 256

	hotspotThreshold = 5

	// DefaultHierarchyDepth bounds call hierarchy expansion.
	DefaultHierarchyDepth = 2
)

// Enhancer merges structural graph data with live language-server
// evidence. Every provider failure is recovered here; callers above
// never see an LSP error, only degraded confidence.
type Enhancer struct {
	store    *graph.Store
	provider lsp.Provider

	symbols *expirable.LRU[string, []lsp.Symbol]

	inflightMu sync.Mutex
	inflight   map[string]chan struct{}

	diagMu sync.RWMutex
	diags  map[string][]lsp.Diagnostic
}

// New builds an enhancer over a store and an optional provider. A nil
// provider is legal: all enrichment degrades to structural-only results.
// When the provider emits diagnostics, a consumer goroutine keeps the
// per-file diagnostic cache current until the feed closes.
func New(store *graph.Store, provider lsp.Provider) *Enhancer {
	e := &Enhancer{
		store:    store,
		provider: provider,
		symbols:  expirable.NewLRU[string, []lsp.Symbol](symbolCacheSize, nil, symbolTTL),
		inflight: make(map[string]chan struct{}),
		diags:    make(map[string][]lsp.Diagnostic),
	}
	if provider != nil {
		// providers without a diagnostic feed return a nil channel
		if ch := provider.Diagnostics(); ch != nil {
			go e.consumeDiagnostics(ch)
		}
	}
	return e
}

// Available reports whether a symbol provider is attached.
func (e *Enhancer) Available() bool { return e.provider != nil }

func (e *Enhancer) consumeDiagnostics(ch <-chan lsp.FileDiagnostics) {
	for event := range ch {
		e.diagMu.Lock()
		if len(event.Diagnostics) == 0 {
			delete(e.diags, event.Path)
		} else {
			e.diags[event.Path] = event.Diagnostics
		}
		e.diagMu.Unlock()
	}
}

// NodeInfo is the enriched per-file view.
type NodeInfo struct {
	Found        bool              `json:"found"`
	Path         string            `json:"path"`
	Kind         graph.NodeKind    `json:"kind,omitempty"`
	Imports      []string          `json:"imports"`
	ImportedBy   []string          `json:"importedBy"`
	Exports      []string          `json:"exports"`
	IsEntrypoint bool              `json:"isEntrypoint"`
	IsHotspot    bool              `json:"isHotspot"`
	IssueCount   int               `json:"issueCount"`
	Symbols      []lsp.Symbol      `json:"symbols,omitempty"`
	Diagnostics  []lsp.Diagnostic  `json:"diagnostics,omitempty"`
	LSPAvailable bool              `json:"lspAvailable"`
}

// GetNodeInfo merges graph-derived facts about a file with cached
// symbol and diagnostic snapshots. Missing files return Found false
// with empty lists; provider failures return the structural half with
// LSPAvailable false.
func (e *Enhancer) GetNodeInfo(ctx context.Context, path string) *NodeInfo {
	info := &NodeInfo{
		Path:       path,
		Imports:    []string{},
		ImportedBy: []string{},
		Exports:    []string{},
	}
	node := e.store.ResolveNode(path)
	if node == nil {
		return info
	}
	info.Found = true
	info.Path = node.Path
	info.Kind = node.Kind
	if exports := node.MetaStrings("exports"); exports != nil {
		info.Exports = exports
	}

	for _, edge := range e.store.GetEdgesFrom(node.ID) {
		if edge.Kind != graph.EdgeImports {
			continue
		}
		if target := e.store.GetNode(edge.To); target != nil {
			info.Imports = append(info.Imports, target.Path)
		}
	}
	for _, edge := range e.store.GetEdgesTo(node.ID) {
		if edge.Kind != graph.EdgeImports {
			continue
		}
		if source := e.store.GetNode(edge.From); source != nil {
			info.ImportedBy = append(info.ImportedBy, source.Path)
		}
	}
	info.IsHotspot = len(info.ImportedBy) >= hotspotThreshold
	info.IsEntrypoint = node.Kind == graph.NodeEntrypoint ||
		e.store.GetNode(graph.NodeID(graph.NodeEntrypoint, node.Path)) != nil

	for _, issue := range e.store.GetIssues() {
		if fp, ok := issue.Meta["filePath"].(string); ok && fp == node.Path {
			info.IssueCount++
		}
	}

	if e.provider == nil {
		return info
	}
	symbols, err := e.symbolsFor(ctx, node.Path)
	if err != nil {
		slog.Warn("enhance.symbols.err", "path", node.Path, "err", err)
		return info
	}
	info.LSPAvailable = true
	info.Symbols = symbols
	e.diagMu.RLock()
	info.Diagnostics = append([]lsp.Diagnostic(nil), e.diags[node.Path]...)
	e.diagMu.RUnlock()
	return info
}

// symbolsFor returns the TTL-cached symbol tree for a file, collapsing
// concurrent misses for the same path into one provider call.
func (e *Enhancer) symbolsFor(ctx context.Context, path string) ([]lsp.Symbol, error) {
	for {
		if cached, ok := e.symbols.Get(path); ok {
			return cached, nil
		}

		e.inflightMu.Lock()
		if wait, ok := e.inflight[path]; ok {
			e.inflightMu.Unlock()
			select {
			case <-wait:
				continue // winner populated the cache (or failed); re-check
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		done := make(chan struct{})
		e.inflight[path] = done
		e.inflightMu.Unlock()

		symbols, err := e.provider.DocumentSymbols(ctx, path)
		if err == nil {
			if symbols == nil {
				symbols = []lsp.Symbol{}
			}
			// populate before waking waiters, or they re-fetch
			e.symbols.Add(path, symbols)
		}

		e.inflightMu.Lock()
		delete(e.inflight, path)
		e.inflightMu.Unlock()
		close(done)

		if err != nil {
			return nil, fmt.Errorf("document symbols: %w", err)
		}
		return symbols, nil
	}
}

// ClearCache drops every cached symbol snapshot immediately.
func (e *Enhancer) ClearCache() {
	e.symbols.Purge()
}

// ClearFileCache drops one file's snapshot immediately.
func (e *Enhancer) ClearFileCache(path string) {
	e.symbols.Remove(path)
}

// CallHierarchy passes through to the provider with a bounded depth.
func (e *Enhancer) CallHierarchy(ctx context.Context, path string, line, col, depth int) (*lsp.CallHierarchyNode, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no symbol provider attached")
	}
	if depth <= 0 {
		depth = DefaultHierarchyDepth
	}
	return e.provider.CallHierarchy(ctx, path, line, col, depth)
}

// Definition passes through to the provider.
func (e *Enhancer) Definition(ctx context.Context, path string, line, col int) ([]lsp.Definition, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no symbol provider attached")
	}
	return e.provider.Definition(ctx, path, line, col)
}

// FindReferences passes through to the provider.
func (e *Enhancer) FindReferences(ctx context.Context, path string, line, col int) ([]lsp.Reference, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no symbol provider attached")
	}
	return e.provider.References(ctx, path, line, col)
}
