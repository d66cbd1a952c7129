package crawler

import (
	"path"
	"strings"
)

// Entrypoint classification, recorded as meta.entrypointType on
// entrypoint nodes.
const (
	EntrypointRoute   = "route"
	EntrypointPage    = "page"
	EntrypointCLI     = "cli"
	EntrypointHandler = "handler"
	EntrypointBarrel  = "barrel"
)

// entrypointType classifies a file by path convention and export shape.
// The empty string means the file is not an entrypoint.
func entrypointType(relPath string, facts *FileFacts, isBarrel bool) string {
	dir, base := path.Split(relPath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	segments := strings.Split(strings.Trim(dir, "/"), "/")

	inDir := func(name string) bool {
		for _, seg := range segments {
			if seg == name {
				return true
			}
		}
		return false
	}

	switch {
	case inDir("pages"):
		return EntrypointPage
	case inDir("routes"):
		return EntrypointRoute
	case inDir("app") && (stem == "route" || stem == "layout"):
		return EntrypointRoute
	case inDir("app") && stem == "page":
		return EntrypointPage
	case facts.DefaultExport == "handler" || inDir("api") && facts.DefaultExport != "":
		return EntrypointHandler
	case stem == "main" || stem == "cli":
		return EntrypointCLI
	case isBarrel:
		return EntrypointBarrel
	}
	return ""
}
