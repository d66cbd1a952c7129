package lang

func init() {
	Register(&LanguageSpec{
		Language:        TSX,
		FileExtensions:  []string{".tsx"},
		ImportNodeTypes: []string{"import_statement"},
		ExportNodeTypes: []string{"export_statement"},
		CallNodeTypes:   []string{"call_expression"},
		DeclarationNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"class_declaration",
			"abstract_class_declaration",
			"enum_declaration",
			"interface_declaration",
			"type_alias_declaration",
			"lexical_declaration",
			"variable_declaration",
		},
	})
}
