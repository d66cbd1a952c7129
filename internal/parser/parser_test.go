package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/depscope/depscope-mcp/internal/lang"
)

func TestParseTypeScript(t *testing.T) {
	source := []byte(`import { formatDate } from './date';

export function greet(name: string): string {
	return "Hello, " + name;
}

export interface User {
	id: number;
}
`)
	tree, err := Parse(lang.TypeScript, source)
	if err != nil {
		t.Fatalf("Parse TypeScript: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var importCount, exportCount, ifaceCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			importCount++
		case "export_statement":
			exportCount++
		case "interface_declaration":
			ifaceCount++
		}
		return true
	})
	if importCount != 1 {
		t.Errorf("expected 1 import_statement, got %d", importCount)
	}
	if exportCount != 2 {
		t.Errorf("expected 2 export_statements, got %d", exportCount)
	}
	if ifaceCount != 1 {
		t.Errorf("expected 1 interface_declaration, got %d", ifaceCount)
	}
}

func TestParseTSX(t *testing.T) {
	source := []byte(`import React from 'react';

export default function App() {
	return <div className="app">hi</div>;
}
`)
	tree, err := Parse(lang.TSX, source)
	if err != nil {
		t.Fatalf("Parse TSX: %v", err)
	}
	defer tree.Close()

	var jsxCount int
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "jsx_element" {
			jsxCount++
		}
		return true
	})
	if jsxCount == 0 {
		t.Error("expected at least one jsx_element")
	}
}

func TestParseJavaScript(t *testing.T) {
	source := []byte(`const config = require('./config');

export async function load() {
	const mod = await import('./heavy');
	return mod.run(config);
}
`)
	tree, err := Parse(lang.JavaScript, source)
	if err != nil {
		t.Fatalf("Parse JavaScript: %v", err)
	}
	defer tree.Close()

	var callCount int
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "call_expression" {
			callCount++
		}
		return true
	})
	if callCount < 2 {
		t.Errorf("expected require and mod.run calls, got %d call_expressions", callCount)
	}
}

func TestAllLanguagesLoad(t *testing.T) {
	for _, l := range lang.AllLanguages() {
		_, err := GetLanguage(l)
		if err != nil {
			t.Errorf("GetLanguage(%s): %v", l, err)
		}
	}
}

func TestParseUnsupportedLanguage(t *testing.T) {
	if _, err := Parse(lang.Language("cobol"), []byte("x")); err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestNodeText(t *testing.T) {
	source := []byte(`export function greet() { return 1; }`)
	tree, err := Parse(lang.TypeScript, source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				t.Error("function has no name node")
				return false
			}
			if name := NodeText(nameNode, source); name != "greet" {
				t.Errorf("expected greet, got %s", name)
			}
			return false
		}
		return true
	})
}
