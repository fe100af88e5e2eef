package interaction

import (
	"time"

	"graphview/pkg/engine"
	"graphview/pkg/logging"
	"graphview/pkg/model"
)

// NodeLookup resolves graph state for the router
type NodeLookup interface {
	NodeAt(index int) (model.Node, bool)
	NodeByID(id string) (model.Node, bool)
	IndexOf(id string) (int, bool)
}

// Router translates the engine's index-based pointer callbacks into
// domain node events. Indices can go stale between the engine's internal
// buffers and the local arrays while a reconciliation is in flight; when
// a local lookup misses, the router re-queries the engine for its
// authoritative point record and resolves the node by id instead.
type Router struct {
	lookup    NodeLookup
	engine    engine.Engine
	selection *Selection
}

// NewRouter creates a router over the given state and engine
func NewRouter(lookup NodeLookup, eng engine.Engine, sel *Selection) *Router {
	return &Router{lookup: lookup, engine: eng, selection: sel}
}

// resolve maps an engine point index to a domain node
func (r *Router) resolve(index int) (model.Node, int, bool) {
	if n, ok := r.lookup.NodeAt(index); ok {
		return n, index, true
	}

	// Stale index: ask the engine which point it actually meant, then
	// look the node up by id
	p, ok := r.engine.PointByIndex(index)
	if !ok {
		return model.Node{}, 0, false
	}
	n, ok := r.lookup.NodeByID(p.ID)
	if !ok {
		return model.Node{}, 0, false
	}
	i, ok := r.lookup.IndexOf(p.ID)
	if !ok {
		i = index
	}
	return n, i, true
}

// Click routes an index-based click event. Unresolvable events are
// dropped with a diagnostic; they indicate a click that raced a removal.
func (r *Router) Click(index int, multiModifier bool, at time.Time) (model.Node, bool) {
	n, i, ok := r.resolve(index)
	if !ok {
		logging.Debug("dropped click on unresolvable point", "index", index)
		return model.Node{}, false
	}
	if at.IsZero() {
		at = time.Now()
	}
	r.selection.Click(n.ID, i, multiModifier, at)
	return n, true
}

// Hover routes an index-based hover event; a negative index clears the
// hover state
func (r *Router) Hover(index int) (model.Node, bool) {
	if index < 0 {
		r.selection.Hover("")
		return model.Node{}, false
	}
	n, _, ok := r.resolve(index)
	if !ok {
		logging.Debug("dropped hover on unresolvable point", "index", index)
		return model.Node{}, false
	}
	r.selection.Hover(n.ID)
	return n, true
}
