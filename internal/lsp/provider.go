// Package lsp models the external language server as an opaque async
// capability. The core never sees host-specific result shapes: every
// operation returns the package's own tagged types with 1-indexed
// positions, and failures surface as plain errors that callers are
// expected to degrade on, not propagate.
package lsp

import "context"

// Provider is the symbol capability consumed by the enhancer. All calls
// may suspend on editor round-trips; implementations must honor ctx
// cancellation and must never leave partial state behind on failure.
//
// Positions are 1-indexed on both sides of this interface.
type Provider interface {
	// DocumentSymbols returns the symbol tree of one file.
	DocumentSymbols(ctx context.Context, path string) ([]Symbol, error)

	// WorkspaceSymbols searches symbols across the workspace.
	WorkspaceSymbols(ctx context.Context, query string) ([]WorkspaceSymbol, error)

	// References finds all references to the symbol at a position.
	References(ctx context.Context, path string, line, col int) ([]Reference, error)

	// Definition resolves the definition(s) of the symbol at a position.
	Definition(ctx context.Context, path string, line, col int) ([]Definition, error)

	// CallHierarchy expands incoming and outgoing calls from a position,
	// bounded by depth.
	CallHierarchy(ctx context.Context, path string, line, col, depth int) (*CallHierarchyNode, error)

	// Diagnostics exposes the push-based diagnostics feed. The channel
	// closes when the provider shuts down.
	Diagnostics() <-chan FileDiagnostics

	// Close shuts the provider down and releases the underlying server.
	Close() error
}
