package graph

import "fmt"

// NodeKind classifies what a graph node represents.
type NodeKind string

const (
	NodeFile       NodeKind = "file"
	NodeDirectory  NodeKind = "directory"
	NodeEntrypoint NodeKind = "entrypoint"
)

// EdgeKind classifies the relationship an edge encodes. The set is open:
// analyzers may introduce further kinds without store changes.
type EdgeKind string

const (
	EdgeImports   EdgeKind = "imports"
	EdgeReexports EdgeKind = "reexports"
	EdgeDynamic   EdgeKind = "dynamic"
)

// Confidence reflects how an edge or validation result was derived:
// a static parse is high, a heuristic match is medium or low.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Severity grades an issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IssueKind identifies a class of detected structural problem.
type IssueKind string

const (
	IssueHandlerUnreachable  IssueKind = "HANDLER_UNREACHABLE"
	IssueDynamicEdgeUnknown  IssueKind = "DYNAMIC_EDGE_UNKNOWN"
	IssueBrokenExportChain   IssueKind = "BROKEN_EXPORT_CHAIN"
	IssueCircularReexport    IssueKind = "CIRCULAR_REEXPORT"
	IssueCircularDependency  IssueKind = "CIRCULAR_DEPENDENCY"
	IssueOrphanExport        IssueKind = "ORPHAN_EXPORT"
	IssueEntryMissingHandler IssueKind = "ENTRY_MISSING_HANDLER"
	IssueNotRegistered       IssueKind = "NOT_REGISTERED"
	IssueCycleRisk           IssueKind = "CYCLE_RISK"
	IssueLayerViolation      IssueKind = "LAYER_VIOLATION"

	// IssueDiagnostic carries an editor diagnostic reshaped into the issue
	// view. It is not produced by structural analysis.
	IssueDiagnostic IssueKind = "DIAGNOSTIC"
)

// Node represents a file, directory, or logical entrypoint.
//
// Meta holds kind-specific attributes ("exports", "framework",
// "entrypointType", ...). An absent key means unknown, never empty.
type Node struct {
	ID   string         `json:"id"`
	Kind NodeKind       `json:"kind"`
	Name string         `json:"name"`
	Path string         `json:"path"`
	Meta map[string]any `json:"meta,omitempty"`
}

// NodeID derives the stable node id from kind and path.
func NodeID(kind NodeKind, path string) string {
	return fmt.Sprintf("%s:%s", kind, path)
}

// MetaStrings reads a []string value out of Meta, tolerating both []string
// and []any (the latter appears after a JSON round trip).
func (n *Node) MetaStrings(key string) []string {
	if n == nil || n.Meta == nil {
		return nil
	}
	switch v := n.Meta[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// MetaString reads a string value out of Meta, "" if absent.
func (n *Node) MetaString(key string) string {
	if n == nil || n.Meta == nil {
		return ""
	}
	s, _ := n.Meta[key].(string)
	return s
}

// Edge is a directed relationship between two nodes. From and To need not
// exist as nodes — a dangling edge represents a broken reference and is
// legal by design.
type Edge struct {
	ID         string         `json:"id"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Kind       EdgeKind       `json:"kind"`
	Confidence Confidence     `json:"confidence"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// EdgeID derives a deterministic edge id from its endpoints and kind.
func EdgeID(from, to string, kind EdgeKind) string {
	return fmt.Sprintf("%s|%s|%s", from, kind, to)
}

// Issue is a detected structural problem. Issues are computed in batch and
// replaced wholesale via SetIssues; they are never patched incrementally.
type Issue struct {
	ID       string         `json:"id"`
	Kind     IssueKind      `json:"kind"`
	Severity Severity       `json:"severity"`
	Title    string         `json:"title"`
	Message  string         `json:"message,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Evidence []string       `json:"evidence,omitempty"`
}
