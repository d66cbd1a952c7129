// Package watcher polls the workspace for file changes and re-indexes
// changed files incrementally.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/depscope/depscope-mcp/internal/crawler"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// FileIndexer re-indexes one workspace-relative file; satisfied by
// crawler.Crawler.
type FileIndexer interface {
	IndexFile(relPath string) error
}

// Watcher polls the workspace for file changes with an adaptive
// interval and re-indexes the files that changed.
type Watcher struct {
	root    string
	opts    crawler.DiscoverOptions
	indexer FileIndexer

	// onChange runs after the changed files were re-indexed; the
	// analysis passes and cache invalidation hang off it.
	onChange func(changed []string)

	base     time.Duration
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// New creates a Watcher over one workspace root. base is the minimum
// poll interval; zero or negative means the 1s default.
func New(root string, opts crawler.DiscoverOptions, indexer FileIndexer, onChange func(changed []string), base time.Duration) *Watcher {
	if base <= 0 {
		base = baseInterval
	}
	return &Watcher{
		root:     root,
		opts:     opts,
		indexer:  indexer,
		onChange: onChange,
		base:     base,
		interval: base,
	}
}

// Run blocks until ctx is cancelled. Ticks at the base interval,
// polling only when the adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.base)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(w.nextPoll) {
				continue
			}
			w.poll(ctx)
		}
	}
}

// poll captures a snapshot of the file tree and re-indexes the diff
// against the previous one. The first poll only records the baseline.
func (w *Watcher) poll(ctx context.Context) {
	if _, err := os.Stat(w.root); err != nil {
		slog.Warn("watcher.root_gone", "path", w.root)
		w.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := w.captureSnapshot(ctx)
	if err != nil {
		slog.Warn("watcher.snapshot", "err", err)
		w.nextPoll = time.Now().Add(w.interval)
		return
	}

	w.interval = pollInterval(len(snap))
	if w.interval < w.base {
		w.interval = w.base
	}
	defer func() { w.nextPoll = time.Now().Add(w.interval) }()

	if w.snapshot == nil {
		slog.Debug("watcher.baseline", "files", len(snap))
		w.snapshot = snap
		return
	}

	changed := diffSnapshots(w.snapshot, snap)
	if len(changed) == 0 {
		return
	}

	slog.Info("watcher.changed", "files", len(changed))
	failed := false
	for _, rel := range changed {
		if err := w.indexer.IndexFile(rel); err != nil {
			slog.Warn("watcher.index", "path", rel, "err", err)
			failed = true
		}
	}
	if failed {
		// keep the old snapshot so the next cycle retries
		return
	}
	w.snapshot = snap
	if w.onChange != nil {
		w.onChange(changed)
	}
}

func (w *Watcher) captureSnapshot(ctx context.Context) (map[string]fileSnapshot, error) {
	files, err := crawler.Discover(ctx, w.root, &w.opts)
	if err != nil {
		return nil, err
	}
	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap, nil
}

// diffSnapshots returns the sorted set of paths that were added,
// removed, or modified between two snapshots.
func diffSnapshots(old, cur map[string]fileSnapshot) []string {
	var changed []string
	for path, prev := range old {
		next, ok := cur[path]
		if !ok {
			changed = append(changed, path) // removed
			continue
		}
		if !prev.modTime.Equal(next.modTime) || prev.size != next.size {
			changed = append(changed, path)
		}
	}
	for path := range cur {
		if _, ok := old[path]; !ok {
			changed = append(changed, path) // added
		}
	}
	sort.Strings(changed)
	return changed
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
