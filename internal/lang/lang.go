package lang

// Language represents a supported source language.
type Language string

const (
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{TypeScript, TSX, JavaScript}
}

// LanguageSpec defines the tree-sitter node types for a language.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// ImportNodeTypes lists node kinds that introduce a module dependency.
	ImportNodeTypes []string
	// ExportNodeTypes lists node kinds that declare or re-export symbols.
	ExportNodeTypes []string
	// CallNodeTypes lists call expression node kinds (dynamic import()).
	CallNodeTypes []string
	// DeclarationNodeTypes lists node kinds an export statement may wrap.
	DeclarationNodeTypes []string
}

// IsImportNode reports whether kind introduces a module dependency.
func (s *LanguageSpec) IsImportNode(kind string) bool {
	return containsKind(s.ImportNodeTypes, kind)
}

// IsExportNode reports whether kind declares or re-exports symbols.
func (s *LanguageSpec) IsExportNode(kind string) bool {
	return containsKind(s.ExportNodeTypes, kind)
}

// IsCallNode reports whether kind is a call expression.
func (s *LanguageSpec) IsCallNode(kind string) bool {
	return containsKind(s.CallNodeTypes, kind)
}

// IsDeclarationNode reports whether kind is a declaration an export
// statement may wrap in this language.
func (s *LanguageSpec) IsDeclarationNode(kind string) bool {
	return containsKind(s.DeclarationNodeTypes, kind)
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}
