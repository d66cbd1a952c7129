package crawler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/depscope/depscope-mcp/internal/lang"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".git": true, ".hg": true, ".idea": true,
	".next": true, ".npm": true, ".nuxt": true, ".nyc_output": true,
	".pnpm-store": true, ".svn": true, ".tmp": true, ".turbo": true,
	".vercel": true, ".vs": true, ".vscode": true, ".yarn": true,
	"bower_components": true, "build": true, "coverage": true,
	"dist": true, "node_modules": true, "out": true, "storybook-static": true,
	"temp": true, "tmp": true, "vendor": true,
}

// IGNORE_SUFFIXES are file suffixes to skip.
var IGNORE_SUFFIXES = map[string]bool{
	".tmp": true, "~": true, ".map": true, ".min.js": true, ".d.ts": true,
}

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // relative to workspace root, slash-separated
	Size     int64
	Language lang.Language
}

// DiscoverOptions configures file discovery.
type DiscoverOptions struct {
	// Ignore holds extra glob patterns matched against dir names and
	// workspace-relative paths.
	Ignore []string
	// MaxFileSize skips files larger than this many bytes; zero means
	// no limit.
	MaxFileSize int64
}

func shouldSkipDir(name, rel string, extra []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	for _, pattern := range extra {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func shouldSkipFile(name string) bool {
	for suffix := range IGNORE_SUFFIXES {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Discover walks a workspace and returns the source files to index.
// A .gitignore at the workspace root is honored when present.
func Discover(ctx context.Context, root string, opts *DiscoverOptions) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var extra []string
	var maxSize int64
	if opts != nil {
		extra = opts.Ignore
		maxSize = opts.MaxFileSize
	}

	gi, giErr := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if giErr != nil {
		gi = nil // no .gitignore, or unreadable; walk everything
	}

	var files []FileInfo
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel == "." {
				return nil
			}
			if shouldSkipDir(info.Name(), rel, extra) {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldSkipFile(info.Name()) {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if maxSize > 0 && info.Size() > maxSize {
			return nil
		}

		l, ok := lang.LanguageForExtension(filepath.Ext(path))
		if !ok {
			return nil
		}
		files = append(files, FileInfo{
			Path:     path,
			RelPath:  rel,
			Size:     info.Size(),
			Language: l,
		})
		return nil
	})
	return files, err
}
