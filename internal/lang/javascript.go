package lang

func init() {
	Register(&LanguageSpec{
		Language:        JavaScript,
		FileExtensions:  []string{".js", ".jsx", ".mjs", ".cjs"},
		ImportNodeTypes: []string{"import_statement"},
		ExportNodeTypes: []string{"export_statement"},
		CallNodeTypes:   []string{"call_expression"},
		DeclarationNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"class_declaration",
			"lexical_declaration",
			"variable_declaration",
		},
	})
}
