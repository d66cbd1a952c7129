package barrel

import (
	"encoding/json"
	"path"
	"regexp"
	"sort"
	"strings"
)

// Re-export statement syntax is regular enough that a regex scan is a
// reliable signal; a full parse buys nothing here. Both statement forms
// tolerate newlines inside braces and either quote style.
var (
	// export * from './x'  /  export * as ns from './x'
	wildcardRe = regexp.MustCompile(`(?m)export\s+\*\s*(?:as\s+([A-Za-z_$][A-Za-z0-9_$]*)\s+)?from\s+['"]([^'"]+)['"]`)

	// export { a, b as c } from './x'  /  export type { T } from './x'
	namedRe = regexp.MustCompile(`(?s)export\s+(?:type\s+)?\{([^}]*)\}\s*from\s+['"]([^'"]+)['"]`)
)

// ReexportSymbol is one named symbol in a re-export clause. Name is the
// symbol's name in the source module; Alias is the name it is exported
// under here, empty when unchanged.
type ReexportSymbol struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// Exported returns the name this symbol is visible under.
func (s ReexportSymbol) Exported() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// ReexportEntry is one re-export statement. Wildcard entries re-export
// everything from Source (optionally under a Namespace); named entries
// carry their symbol list.
type ReexportEntry struct {
	Source    string
	Wildcard  bool
	Namespace string
	Symbols   []ReexportSymbol
}

// MarshalJSON renders symbols as "*" for wildcard entries and as the
// list of exported names otherwise.
func (e ReexportEntry) MarshalJSON() ([]byte, error) {
	out := map[string]any{"source": e.Source}
	if e.Wildcard {
		out["symbols"] = "*"
		if e.Namespace != "" {
			out["namespace"] = e.Namespace
		}
	} else {
		names := make([]string, len(e.Symbols))
		for i, s := range e.Symbols {
			names[i] = s.Exported()
		}
		out["symbols"] = names
	}
	return json.Marshal(out)
}

// statementMatch pairs a regex match with its offset so entries come
// back in source order regardless of which pattern matched.
type statementMatch struct {
	offset int
	entry  ReexportEntry
}

// parseReexports extracts every re-export statement from raw source.
func parseReexports(content string) []ReexportEntry {
	var matches []statementMatch

	for _, m := range wildcardRe.FindAllStringSubmatchIndex(content, -1) {
		entry := ReexportEntry{Wildcard: true, Source: content[m[4]:m[5]]}
		if m[2] >= 0 {
			entry.Namespace = content[m[2]:m[3]]
		}
		matches = append(matches, statementMatch{offset: m[0], entry: entry})
	}

	for _, m := range namedRe.FindAllStringSubmatchIndex(content, -1) {
		clause := content[m[2]:m[3]]
		entry := ReexportEntry{
			Source:  content[m[4]:m[5]],
			Symbols: parseSymbolClause(clause),
		}
		if len(entry.Symbols) == 0 {
			continue
		}
		matches = append(matches, statementMatch{offset: m[0], entry: entry})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })
	out := make([]ReexportEntry, len(matches))
	for i, m := range matches {
		out[i] = m.entry
	}
	return out
}

// parseSymbolClause splits "a, b as c, type T" into symbols.
func parseSymbolClause(clause string) []ReexportSymbol {
	var out []ReexportSymbol
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "type ")
		if part == "" {
			continue
		}
		if name, alias, found := strings.Cut(part, " as "); found {
			out = append(out, ReexportSymbol{
				Name:  strings.TrimSpace(name),
				Alias: strings.TrimSpace(alias),
			})
			continue
		}
		out = append(out, ReexportSymbol{Name: part})
	}
	return out
}

// indexBasenames marks the file names that qualify as barrel candidates.
var indexBasenames = map[string]bool{
	"index.ts": true, "index.tsx": true,
	"index.js": true, "index.jsx": true,
	"index.mjs": true, "index.cjs": true,
}

// isIndexFile reports whether the path names an index file.
func isIndexFile(filePath string) bool {
	return indexBasenames[path.Base(filePath)]
}
