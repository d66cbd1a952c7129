package lsp

import "encoding/json"

// JSON-RPC 2.0 wire types.

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// reply answers a server-to-client request.
type reply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return e.Message }

// LSP wire types (0-indexed positions). These never cross the provider
// boundary — the client converts to the 1-indexed domain types below.

type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type wireRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type location struct {
	URI   string    `json:"uri"`
	Range wireRange `json:"range"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type documentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           int              `json:"kind"`
	Range          wireRange        `json:"range"`
	SelectionRange wireRange        `json:"selectionRange"`
	Children       []documentSymbol `json:"children,omitempty"`
}

type workspaceSymbol struct {
	Name          string   `json:"name"`
	Kind          int      `json:"kind"`
	ContainerName string   `json:"containerName,omitempty"`
	Location      location `json:"location"`
}

type diagnosticWire struct {
	Range    wireRange `json:"range"`
	Severity int       `json:"severity,omitempty"`
	Code     any       `json:"code,omitempty"`
	Source   string    `json:"source,omitempty"`
	Message  string    `json:"message"`
}

type publishDiagnosticsParams struct {
	URI         string           `json:"uri"`
	Diagnostics []diagnosticWire `json:"diagnostics"`
}

type callHierarchyItem struct {
	Name           string    `json:"name"`
	Kind           int       `json:"kind"`
	URI            string    `json:"uri"`
	Range          wireRange `json:"range"`
	SelectionRange wireRange `json:"selectionRange"`
}

type callHierarchyIncomingCall struct {
	From       callHierarchyItem `json:"from"`
	FromRanges []wireRange       `json:"fromRanges"`
}

type callHierarchyOutgoingCall struct {
	To         callHierarchyItem `json:"to"`
	FromRanges []wireRange       `json:"fromRanges"`
}

// Domain types (1-indexed positions). The core speaks these, never the
// wire shapes — host-specific result objects stop at this boundary.

// SymbolKind is a closed enumeration mapped from the host's numeric
// symbol kinds.
type SymbolKind string

const (
	KindFile        SymbolKind = "file"
	KindModule      SymbolKind = "module"
	KindNamespace   SymbolKind = "namespace"
	KindClass       SymbolKind = "class"
	KindMethod      SymbolKind = "method"
	KindProperty    SymbolKind = "property"
	KindConstructor SymbolKind = "constructor"
	KindEnum        SymbolKind = "enum"
	KindInterface   SymbolKind = "interface"
	KindFunction    SymbolKind = "function"
	KindVariable    SymbolKind = "variable"
	KindConstant    SymbolKind = "constant"
	KindUnknown     SymbolKind = "unknown"
)

// lspSymbolKinds maps LSP numeric symbol kinds to the closed set.
var lspSymbolKinds = map[int]SymbolKind{
	1: KindFile, 2: KindModule, 3: KindNamespace, 4: KindModule,
	5: KindClass, 6: KindMethod, 7: KindProperty, 8: KindProperty,
	9: KindConstructor, 10: KindEnum, 11: KindInterface, 12: KindFunction,
	13: KindVariable, 14: KindConstant, 22: KindEnum,
}

// MapSymbolKind converts a raw LSP kind number, KindUnknown for anything
// unrecognized.
func MapSymbolKind(raw int) SymbolKind {
	if k, ok := lspSymbolKinds[raw]; ok {
		return k
	}
	return KindUnknown
}

// Range is a 1-indexed position span.
type Range struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// Symbol is one node of a document symbol tree.
type Symbol struct {
	Name           string     `json:"name"`
	Detail         string     `json:"detail,omitempty"`
	Kind           SymbolKind `json:"kind"`
	Range          Range      `json:"range"`
	SelectionRange Range      `json:"selectionRange"`
	Children       []Symbol   `json:"children,omitempty"`
}

// WorkspaceSymbol is one workspace symbol search hit.
type WorkspaceSymbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Container string     `json:"container,omitempty"`
	Path      string     `json:"path"`
	Range     Range      `json:"range"`
}

// Reference is one find-references hit.
type Reference struct {
	Path         string `json:"path"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	LineText     string `json:"lineText,omitempty"`
	IsDefinition bool   `json:"isDefinition"`
}

// Definition is one go-to-definition result.
type Definition struct {
	Path  string `json:"path"`
	Range Range  `json:"range"`
}

// CallHierarchyNode is a bounded-depth call tree node.
type CallHierarchyNode struct {
	Name     string              `json:"name"`
	Kind     SymbolKind          `json:"kind"`
	Path     string              `json:"path"`
	Range    Range               `json:"range"`
	Incoming []CallHierarchyNode `json:"incoming,omitempty"`
	Outgoing []CallHierarchyNode `json:"outgoing,omitempty"`
}

// DiagnosticSeverity grades an editor diagnostic.
type DiagnosticSeverity string

const (
	DiagError   DiagnosticSeverity = "error"
	DiagWarning DiagnosticSeverity = "warning"
	DiagInfo    DiagnosticSeverity = "info"
	DiagHint    DiagnosticSeverity = "hint"
)

// MapDiagnosticSeverity converts the LSP numeric severity.
func MapDiagnosticSeverity(raw int) DiagnosticSeverity {
	switch raw {
	case 1:
		return DiagError
	case 2:
		return DiagWarning
	case 3:
		return DiagInfo
	default:
		return DiagHint
	}
}

// Diagnostic is one editor diagnostic for a file.
type Diagnostic struct {
	Severity DiagnosticSeverity `json:"severity"`
	Message  string             `json:"message"`
	Range    Range              `json:"range"`
	Source   string             `json:"source,omitempty"`
	Code     string             `json:"code,omitempty"`
}

// FileDiagnostics is one event on the diagnostics feed.
type FileDiagnostics struct {
	Path        string       `json:"path"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// toRange converts a 0-indexed wire range to the 1-indexed domain form.
func toRange(r wireRange) Range {
	return Range{
		StartLine: r.Start.Line + 1,
		StartCol:  r.Start.Character + 1,
		EndLine:   r.End.Line + 1,
		EndCol:    r.End.Character + 1,
	}
}
