package crawler

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/depscope/depscope-mcp/internal/lang"
	"github.com/depscope/depscope-mcp/internal/parser"
)

// ImportRef is one module dependency found in a file. Dynamic refs come
// from import() expressions, whose targets are only known when the
// argument is a string literal.
type ImportRef struct {
	Spec    string
	Dynamic bool
}

// FileFacts is what one parsed file contributes to the graph.
type FileFacts struct {
	Imports         []ImportRef
	ReexportSources []string
	Exports         []string
	DefaultExport   string // declaration name behind "export default", if any
}

// Extract parses a source file and pulls out its import and export
// structure. Node kinds are dispatched through the language's spec, so
// per-language differences live in the lang registry.
func Extract(language lang.Language, source []byte) (*FileFacts, error) {
	spec := lang.ForLanguage(language)
	if spec == nil {
		return nil, fmt.Errorf("no language spec registered for %q", language)
	}
	tree, err := parser.Parse(language, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	facts := &FileFacts{}
	seen := map[string]bool{}
	addExport := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		facts.Exports = append(facts.Exports, name)
	}

	parser.Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		kind := n.Kind()
		switch {
		case spec.IsImportNode(kind):
			if s := sourceSpec(n, source); s != "" {
				facts.Imports = append(facts.Imports, ImportRef{Spec: s})
			}
			return false
		case spec.IsExportNode(kind):
			extractExport(spec, n, source, facts, addExport)
			// keep walking: exported function bodies may hold import()
			return true
		case spec.IsCallNode(kind):
			s, dynamic := callImportSpec(n, source)
			if s != "" {
				facts.Imports = append(facts.Imports, ImportRef{Spec: s, Dynamic: dynamic})
			}
			return true
		}
		return true
	})
	return facts, nil
}

// sourceSpec reads the string literal in an import/export "source" field.
func sourceSpec(n *tree_sitter.Node, source []byte) string {
	src := n.ChildByFieldName("source")
	if src == nil {
		return ""
	}
	return stripQuotes(parser.NodeText(src, source))
}

// callImportSpec recognizes import('x') and require('x') calls. Only
// literal arguments yield a spec; computed specifiers stay unknown.
func callImportSpec(n *tree_sitter.Node, source []byte) (spec string, dynamic bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	name := parser.NodeText(fn, source)
	if name != "import" && name != "require" {
		return "", false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		if arg != nil && arg.Kind() == "string" {
			return stripQuotes(parser.NodeText(arg, source)), name == "import"
		}
	}
	return "", false
}

// extractExport handles one export_statement: re-exports feed the
// re-export list, local declarations and clauses feed the export names.
func extractExport(spec *lang.LanguageSpec, n *tree_sitter.Node, source []byte, facts *FileFacts, addExport func(string)) {
	if src := sourceSpec(n, source); src != "" {
		facts.ReexportSources = append(facts.ReexportSources, src)
		// named re-exports are also visible from this file
		collectClauseNames(n, source, addExport)
		return
	}

	isDefault := false
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil && child.Kind() == "default" {
			isDefault = true
			break
		}
	}

	decl := n.ChildByFieldName("declaration")
	if decl == nil {
		// try the first named child that looks like a declaration
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child != nil && spec.IsDeclarationNode(child.Kind()) {
				decl = child
				break
			}
		}
	}

	if isDefault {
		addExport("default")
		if decl != nil {
			if name := declarationName(decl, source); name != "" {
				facts.DefaultExport = name
			}
		}
		return
	}

	if decl != nil {
		collectDeclarationNames(decl, source, addExport)
		return
	}
	collectClauseNames(n, source, addExport)
}

// declarationName returns the identifier a declaration binds, empty for
// anonymous declarations.
func declarationName(decl *tree_sitter.Node, source []byte) string {
	if name := decl.ChildByFieldName("name"); name != nil {
		return parser.NodeText(name, source)
	}
	return ""
}

// collectDeclarationNames handles "export const a = 1, b = 2" and the
// single-name declaration kinds.
func collectDeclarationNames(decl *tree_sitter.Node, source []byte, addExport func(string)) {
	switch decl.Kind() {
	case "lexical_declaration", "variable_declaration":
		parser.Walk(decl, func(n *tree_sitter.Node) bool {
			if n.Kind() != "variable_declarator" {
				return true
			}
			if name := n.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
				addExport(parser.NodeText(name, source))
			}
			return false
		})
	default:
		addExport(declarationName(decl, source))
	}
}

// collectClauseNames handles "export { a, b as c }" forms; the exported
// (outer) name is the alias when one is present.
func collectClauseNames(n *tree_sitter.Node, source []byte, addExport func(string)) {
	parser.Walk(n, func(child *tree_sitter.Node) bool {
		if child.Kind() != "export_specifier" {
			return true
		}
		if alias := child.ChildByFieldName("alias"); alias != nil {
			addExport(parser.NodeText(alias, source))
			return false
		}
		if name := child.ChildByFieldName("name"); name != nil {
			addExport(parser.NodeText(name, source))
		}
		return false
	})
}

func stripQuotes(s string) string {
	return strings.Trim(s, "'\"`")
}
