// Package graph holds the in-memory dependency graph: typed nodes and
// edges with adjacency indices, plus the current issue set.
//
// The store is a dumb, fast substrate. It performs no referential
// integrity checks and raises no errors — absent lookups return nil or
// empty slices, and interpretation lives in the layers above (query,
// barrel, enhance). One Store is built per indexing session and owns its
// nodes, edges, and issues for that session's lifetime.
package graph

import (
	"strings"
	"sync"
)

// Store is the mutable directed graph. Methods are safe for concurrent
// readers; writes are expected to come from a single indexing goroutine
// and are serialized by the internal lock.
type Store struct {
	mu sync.RWMutex

	nodes map[string]*Node
	edges map[string]*Edge

	// adjacency indices: node id -> edge ids, insertion-ordered
	from map[string][]string
	to   map[string][]string

	issues []Issue
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
		from:  make(map[string][]string),
		to:    make(map[string][]string),
	}
}

// AddNode upserts a node by id. Last write wins.
func (s *Store) AddNode(n *Node) {
	if n == nil || n.ID == "" {
		return
	}
	s.mu.Lock()
	s.nodes[n.ID] = n
	s.mu.Unlock()
}

// AddEdge upserts an edge by id and indexes it for adjacency lookup.
// Endpoints need not exist as nodes. An edge is never mutated in place;
// replace by RemoveEdge + AddEdge.
func (s *Store) AddEdge(e *Edge) {
	if e == nil || e.ID == "" {
		return
	}
	s.mu.Lock()
	if _, exists := s.edges[e.ID]; !exists {
		s.from[e.From] = append(s.from[e.From], e.ID)
		s.to[e.To] = append(s.to[e.To], e.ID)
	}
	s.edges[e.ID] = e
	s.mu.Unlock()
}

// RemoveEdge deletes an edge and unlinks it from both indices.
func (s *Store) RemoveEdge(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	if !ok {
		return
	}
	delete(s.edges, id)
	s.from[e.From] = removeID(s.from[e.From], id)
	s.to[e.To] = removeID(s.to[e.To], id)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// GetNode returns the node with the given id, nil if absent.
func (s *Store) GetNode(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// ResolveNode resolves a node reference that may be a full "kind:path" id
// or a bare repository-relative path. Bare paths are tried against the
// file, entrypoint, and directory namespaces in that order.
func (s *Store) ResolveNode(ref string) *Node {
	if ref == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n := s.nodes[ref]; n != nil {
		return n
	}
	// strip a recognized kind prefix so "file:src/a.ts" and "src/a.ts"
	// resolve identically
	path := ref
	if i := strings.Index(ref, ":"); i > 0 {
		switch NodeKind(ref[:i]) {
		case NodeFile, NodeEntrypoint, NodeDirectory:
			path = ref[i+1:]
		}
	}
	for _, kind := range []NodeKind{NodeFile, NodeEntrypoint, NodeDirectory} {
		if n := s.nodes[NodeID(kind, path)]; n != nil {
			return n
		}
	}
	return nil
}

// GetNodesByKind returns all nodes of a kind. O(n) scan; acceptable at
// single-repository scale.
func (s *Store) GetNodesByKind(kind NodeKind) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Node
	for _, n := range s.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// GetEdgesFrom returns all edges leaving a node, kind-unfiltered.
// Callers filter by Kind as needed.
func (s *Store) GetEdgesFrom(nodeID string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesFor(s.from[nodeID])
}

// GetEdgesTo returns all edges arriving at a node, kind-unfiltered.
func (s *Store) GetEdgesTo(nodeID string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesFor(s.to[nodeID])
}

// edgesFor resolves edge ids to edges. Caller must hold mu.
func (s *Store) edgesFor(ids []string) []*Edge {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		if e := s.edges[id]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// GetAllNodes returns every node in the store.
func (s *Store) GetAllNodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}

// GetAllEdges returns every edge in the store.
func (s *Store) GetAllEdges() []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// SetIssues replaces the issue set wholesale. Each analysis pass discards
// the prior set.
func (s *Store) SetIssues(issues []Issue) {
	s.mu.Lock()
	s.issues = issues
	s.mu.Unlock()
}

// GetIssues returns the current issue set.
func (s *Store) GetIssues() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// RemoveFile removes a file's node, any entrypoint nodes on the same
// path, and every edge leaving those nodes. Incoming edges are kept:
// they become dangling references, which downstream analysis reports.
// Used by the watcher for incremental re-crawls.
func (s *Store) RemoveFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range []NodeKind{NodeFile, NodeEntrypoint} {
		id := NodeID(kind, path)
		if _, ok := s.nodes[id]; !ok {
			continue
		}
		delete(s.nodes, id)
		for _, eid := range s.from[id] {
			if e := s.edges[eid]; e != nil {
				delete(s.edges, eid)
				s.to[e.To] = removeID(s.to[e.To], eid)
			}
		}
		delete(s.from, id)
	}
}
