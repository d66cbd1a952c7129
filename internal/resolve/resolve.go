// Package resolve expands relative import specifiers into candidate
// repository paths and resolves them against the graph. Bare specifiers
// (npm packages) are out of scope and resolve to nothing.
package resolve

import (
	"path"
	"strings"

	"github.com/depscope/depscope-mcp/internal/graph"
)

// sourceExts are tried, in order, when a specifier omits its extension.
var sourceExts = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// IsRelative reports whether a specifier is relative ("./x", "../x").
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == ".."
}

// HasSourceExt reports whether p already carries a known source extension.
func HasSourceExt(p string) bool {
	ext := path.Ext(p)
	for _, e := range sourceExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Candidates expands a relative specifier, as written in fromPath, into
// the repository-relative paths it may denote: the literal path, the
// path with each known extension appended, and the index file of the
// directory it names.
func Candidates(fromPath, spec string) []string {
	if !IsRelative(spec) {
		return nil
	}
	base := path.Clean(path.Join(path.Dir(fromPath), spec))
	if strings.HasPrefix(base, "..") {
		// escaped the repository root
		return nil
	}

	var out []string
	if HasSourceExt(base) {
		return []string{base}
	}
	for _, ext := range sourceExts {
		out = append(out, base+ext)
	}
	for _, ext := range sourceExts {
		out = append(out, path.Join(base, "index"+ext))
	}
	return out
}

// File resolves a relative specifier to a file node in the store, nil
// when no candidate exists in the graph.
func File(s *graph.Store, fromPath, spec string) *graph.Node {
	for _, cand := range Candidates(fromPath, spec) {
		if n := s.GetNode(graph.NodeID(graph.NodeFile, cand)); n != nil {
			return n
		}
	}
	return nil
}
