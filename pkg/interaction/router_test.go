package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphview/pkg/engine"
	"graphview/pkg/model"
	"graphview/pkg/render"
	"graphview/pkg/store"
)

func storeWith(ids ...string) *store.Store {
	s := store.New()
	nodes := make([]model.Node, len(ids))
	for i, id := range ids {
		nodes[i] = model.Node{ID: id, Label: id}
	}
	s.Replace(model.Graph{Nodes: nodes})
	return s
}

func TestClickResolvesLocally(t *testing.T) {
	s := storeWith("a", "b")
	eng := engine.NewMemory()
	sel := NewSelection(eng, nil)
	r := NewRouter(s, eng, sel)

	n, ok := r.Click(1, false, time.Now())

	require.True(t, ok)
	assert.Equal(t, "b", n.ID)
	assert.Equal(t, []string{"b"}, sel.IDs())
}

func TestClickFallsBackToEngineOnStaleIndex(t *testing.T) {
	// The store shrank to one node, but the engine still holds two
	// points from before the reconciliation
	s := storeWith("b")
	eng := engine.NewMemory()
	eng.Init(render.Frame{Points: []render.PointRecord{
		{ID: "a", Index: 0},
		{ID: "b", Index: 1},
	}})
	sel := NewSelection(eng, nil)
	r := NewRouter(s, eng, sel)

	// Index 1 is out of range locally; the engine says it is "b"
	n, ok := r.Click(1, false, time.Now())

	require.True(t, ok)
	assert.Equal(t, "b", n.ID)
	// Selection carries the authoritative local index, not the stale one
	assert.Equal(t, []int{0}, eng.Selection())
}

func TestClickOnRemovedNodeIsDropped(t *testing.T) {
	s := storeWith("a")
	eng := engine.NewMemory()
	sel := NewSelection(eng, nil)
	r := NewRouter(s, eng, sel)

	// Nothing local at index 7 and the engine has no such point either
	_, ok := r.Click(7, false, time.Now())

	assert.False(t, ok)
	assert.Equal(t, ModeNone, sel.Mode())
}

func TestHoverRoutesAndClears(t *testing.T) {
	s := storeWith("a")
	eng := engine.NewMemory()
	var last Changed
	sel := NewSelection(eng, func(c Changed) { last = c })
	r := NewRouter(s, eng, sel)

	n, ok := r.Hover(0)
	require.True(t, ok)
	assert.Equal(t, "a", n.ID)
	assert.Equal(t, "a", last.Hovered)

	// Negative index clears the hover
	_, ok = r.Hover(-1)
	assert.False(t, ok)
	assert.Equal(t, "", last.Hovered)
}

func TestHoverOnUnresolvableIsDropped(t *testing.T) {
	s := storeWith("a")
	eng := engine.NewMemory()
	sel := NewSelection(eng, nil)
	r := NewRouter(s, eng, sel)

	_, ok := r.Hover(42)
	assert.False(t, ok)
}
