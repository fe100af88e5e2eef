// Package store owns the authoritative in-memory graph state and merges
// incremental delta batches into it.
package store

import (
	"sync"

	"graphview/pkg/logging"
	"graphview/pkg/model"
)

// Diagnostic records a dropped or ignored record during reconciliation.
// Data-shape problems are never fatal; the offending record is skipped.
type Diagnostic struct {
	BatchID string `json:"batchId,omitempty"`
	Kind    string `json:"kind"` // "missing_node", "unknown_update", "duplicate_link"
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// ChangeSet summarizes what a reconciliation pass changed
type ChangeSet struct {
	NodesAdded   int
	NodesUpdated int
	NodesRemoved int
	LinksAdded   int
	LinksUpdated int
	LinksRemoved int
	Replaced     bool // True for a wholesale refresh
	Version      uint64
}

// Changed reports whether the pass modified anything
func (c ChangeSet) Changed() bool {
	return c.Replaced ||
		c.NodesAdded+c.NodesUpdated+c.NodesRemoved+
			c.LinksAdded+c.LinksUpdated+c.LinksRemoved > 0
}

// Store holds the current node and link arrays together with the id→index
// map. Every mutation goes through Apply or Replace, which rebuild the map
// and recompute each link's cached endpoint indices so they always match
// the node's position in the array.
type Store struct {
	mu      sync.RWMutex
	nodes   []model.Node
	links   []model.Link
	index   map[string]int // node id -> position in nodes
	version uint64
}

// New creates an empty store
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Replace swaps in a complete snapshot, discarding all previous state
func (s *Store) Replace(g model.Graph) (ChangeSet, []Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make([]model.Node, 0, len(g.Nodes))
	s.index = make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := s.index[n.ID]; dup {
			continue
		}
		s.index[n.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}

	s.links = s.links[:0]
	diags := s.reindexLinksLocked(g.Links, "")

	s.version++
	return ChangeSet{Replaced: true, Version: s.version}, diags
}

// Apply merges delta batches, in order, into new node/link arrays and
// rebuilds the index map. It returns a summary and the diagnostics for
// records that were dropped.
func (s *Store) Apply(deltas []model.Delta) (ChangeSet, []Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cs ChangeSet
	var diags []Diagnostic

	links := append([]model.Link(nil), s.links...)

	for _, d := range deltas {
		switch d.Op {
		case model.OpAdd:
			for _, n := range d.Nodes {
				if i, ok := s.index[n.ID]; ok {
					// Re-adding an existing id is an update
					s.nodes[i] = n
					cs.NodesUpdated++
					continue
				}
				s.index[n.ID] = len(s.nodes)
				s.nodes = append(s.nodes, n)
				cs.NodesAdded++
			}
			for _, l := range d.Links {
				if j := findLink(links, l.Key()); j >= 0 {
					links[j] = l
					cs.LinksUpdated++
				} else {
					links = append(links, l)
					cs.LinksAdded++
				}
			}

		case model.OpUpdate:
			for _, n := range d.Nodes {
				i, ok := s.index[n.ID]
				if !ok {
					diags = append(diags, Diagnostic{
						BatchID: d.BatchID,
						Kind:    "unknown_update",
						Subject: n.ID,
						Detail:  "update for a node id not in the current snapshot",
					})
					continue
				}
				s.nodes[i] = mergeNode(s.nodes[i], n)
				cs.NodesUpdated++
			}
			for _, l := range d.Links {
				j := findLink(links, l.Key())
				if j < 0 {
					diags = append(diags, Diagnostic{
						BatchID: d.BatchID,
						Kind:    "unknown_update",
						Subject: l.Key(),
						Detail:  "update for a link not in the current snapshot",
					})
					continue
				}
				links[j] = l
				cs.LinksUpdated++
			}

		case model.OpDelete:
			removed := make(map[string]bool, len(d.Nodes))
			for _, n := range d.Nodes {
				if _, ok := s.index[n.ID]; ok {
					removed[n.ID] = true
				}
			}
			if len(removed) > 0 {
				kept := s.nodes[:0]
				for _, n := range s.nodes {
					if !removed[n.ID] {
						kept = append(kept, n)
					}
				}
				cs.NodesRemoved += len(s.nodes) - len(kept)
				s.nodes = kept
				// Keep the index coherent for batches later in this pass
				s.rebuildIndexLocked()

				// Deleting a node cascades to every link touching it
				keptLinks := links[:0]
				for _, l := range links {
					if removed[l.Source] || removed[l.Target] {
						cs.LinksRemoved++
						continue
					}
					keptLinks = append(keptLinks, l)
				}
				links = keptLinks
			}
			for _, l := range d.Links {
				if j := findLink(links, l.Key()); j >= 0 {
					links = append(links[:j], links[j+1:]...)
					cs.LinksRemoved++
				}
			}
		}
	}

	// One re-index pass per Apply, regardless of how many batches were
	// coalesced into it
	s.rebuildIndexLocked()
	s.links = s.links[:0]
	batchID := ""
	if len(deltas) > 0 {
		batchID = deltas[len(deltas)-1].BatchID
	}
	diags = append(diags, s.reindexLinksLocked(links, batchID)...)

	if cs.Changed() {
		s.version++
	}
	cs.Version = s.version

	for _, diag := range diags {
		logging.Debug("dropped record during reconciliation",
			"kind", diag.Kind, "subject", diag.Subject)
	}

	return cs, diags
}

// rebuildIndexLocked recomputes the id→index map from the node array
func (s *Store) rebuildIndexLocked() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
}

// reindexLinksLocked appends links with their endpoint indices recomputed
// against the current node array. Links naming an absent node are dropped
// with a diagnostic.
func (s *Store) reindexLinksLocked(links []model.Link, batchID string) []Diagnostic {
	var diags []Diagnostic
	for _, l := range links {
		si, ok := s.index[l.Source]
		if !ok {
			diags = append(diags, Diagnostic{
				BatchID: batchID,
				Kind:    "missing_node",
				Subject: l.Key(),
				Detail:  "link source " + l.Source + " not in node set",
			})
			continue
		}
		ti, ok := s.index[l.Target]
		if !ok {
			diags = append(diags, Diagnostic{
				BatchID: batchID,
				Kind:    "missing_node",
				Subject: l.Key(),
				Detail:  "link target " + l.Target + " not in node set",
			})
			continue
		}
		l.SourceIndex = si
		l.TargetIndex = ti
		s.links = append(s.links, l)
	}
	return diags
}

// mergeNode overlays an update onto an existing node. Zero-valued metric
// and optional fields in the update leave the existing values in place;
// the property bag is merged key-by-key.
func mergeNode(cur, upd model.Node) model.Node {
	if upd.Label != "" {
		cur.Label = upd.Label
	}
	if upd.Type != "" {
		cur.Type = upd.Type
	}
	if upd.Metrics != (model.Metrics{}) {
		cur.Metrics = upd.Metrics
	}
	if upd.X != nil {
		cur.X = upd.X
	}
	if upd.Y != nil {
		cur.Y = upd.Y
	}
	if upd.Cluster != nil {
		cur.Cluster = upd.Cluster
	}
	if !upd.CreatedAt.IsZero() {
		cur.CreatedAt = upd.CreatedAt
	}
	if len(upd.Properties) > 0 {
		if cur.Properties == nil {
			cur.Properties = make(map[string]any, len(upd.Properties))
		}
		for k, v := range upd.Properties {
			cur.Properties[k] = v
		}
	}
	return cur
}

func findLink(links []model.Link, key string) int {
	for i := range links {
		if links[i].Key() == key {
			return i
		}
	}
	return -1
}

// Snapshot returns copies of the current node and link arrays
func (s *Store) Snapshot() ([]model.Node, []model.Link) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := append([]model.Node(nil), s.nodes...)
	links := append([]model.Link(nil), s.links...)
	return nodes, links
}

// Version returns the current state version. It increments on every
// change, so unchanged versions are safe to use as cache keys.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// NodeByID returns the node with the given id
func (s *Store) NodeByID(id string) (model.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Node{}, false
	}
	return s.nodes[i], true
}

// NodeAt returns the node at the given position in the node array
func (s *Store) NodeAt(index int) (model.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.nodes) {
		return model.Node{}, false
	}
	return s.nodes[index], true
}

// IndexOf returns the array position for a node id
func (s *Store) IndexOf(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	return i, ok
}

// Len returns the current node count
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
