package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphview/pkg/model"
)

func nodes(ids ...string) []model.Node {
	out := make([]model.Node, len(ids))
	for i, id := range ids {
		out[i] = model.Node{ID: id}
	}
	return out
}

func link(src, tgt string) model.Link {
	return model.Link{Source: src, Target: tgt, Type: "r"}
}

func TestComponents(t *testing.T) {
	// Two components: {a, b, c} and {x, y}
	ns := nodes("a", "b", "c", "x", "y")
	ls := []model.Link{link("a", "b"), link("b", "c"), link("x", "y")}

	got, err := Assign(AlgorithmComponents, ns, ls)

	require.NoError(t, err)
	// Larger component numbered first
	assert.Equal(t, 0, got["a"])
	assert.Equal(t, 0, got["b"])
	assert.Equal(t, 0, got["c"])
	assert.Equal(t, 1, got["x"])
	assert.Equal(t, 1, got["y"])
}

func TestComponentsDirectionIsIgnored(t *testing.T) {
	// b -> a and b -> c still form one weak component
	ns := nodes("a", "b", "c")
	ls := []model.Link{link("b", "a"), link("b", "c")}

	got, err := Assign(AlgorithmComponents, ns, ls)

	require.NoError(t, err)
	assert.Equal(t, got["a"], got["b"])
	assert.Equal(t, got["b"], got["c"])
}

func TestComponentsIsolatedNodesAreSingletons(t *testing.T) {
	got, err := Assign(AlgorithmComponents, nodes("a", "b"), nil)

	require.NoError(t, err)
	assert.NotEqual(t, got["a"], got["b"])
}

func TestNumberingIsDeterministic(t *testing.T) {
	ns := nodes("m", "n", "p", "q")
	ls := []model.Link{link("m", "n"), link("p", "q")}

	first, err := Assign(AlgorithmComponents, ns, ls)
	require.NoError(t, err)

	// Equal sizes tie-break on the smallest member id
	assert.Equal(t, 0, first["m"])
	assert.Equal(t, 1, first["p"])

	second, _ := Assign(AlgorithmComponents, ns, ls)
	assert.Equal(t, first, second)
}

func TestSCC(t *testing.T) {
	// Cycle a -> b -> c -> a plus a dangling d
	ns := nodes("a", "b", "c", "d")
	ls := []model.Link{link("a", "b"), link("b", "c"), link("c", "a"), link("c", "d")}

	got, err := Assign(AlgorithmSCC, ns, ls)

	require.NoError(t, err)
	assert.Equal(t, got["a"], got["b"])
	assert.Equal(t, got["b"], got["c"])
	assert.NotEqual(t, got["a"], got["d"])
}

func TestSCCNoCycles(t *testing.T) {
	ns := nodes("a", "b")
	ls := []model.Link{link("a", "b")}

	got, err := Assign(AlgorithmSCC, ns, ls)

	require.NoError(t, err)
	assert.NotEqual(t, got["a"], got["b"], "acyclic nodes are their own components")
}

func TestModularitySeparatesCliques(t *testing.T) {
	// Two triangles joined by a single bridge
	ns := nodes("a1", "a2", "a3", "b1", "b2", "b3")
	ls := []model.Link{
		link("a1", "a2"), link("a2", "a3"), link("a3", "a1"),
		link("b1", "b2"), link("b2", "b3"), link("b3", "b1"),
		link("a1", "b1"),
	}

	got, err := Assign(AlgorithmModularity, ns, ls)

	require.NoError(t, err)
	assert.Equal(t, got["a1"], got["a2"])
	assert.Equal(t, got["a2"], got["a3"])
	assert.Equal(t, got["b1"], got["b2"])
	assert.Equal(t, got["b2"], got["b3"])
	assert.NotEqual(t, got["a1"], got["b1"])
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := Assign("kmeans", nil, nil)
	assert.Error(t, err)
}

func TestApplyAssignments(t *testing.T) {
	ns := nodes("a", "b")
	updates := ApplyAssignments(ns, map[string]int{"a": 2})

	require.Len(t, updates, 1)
	assert.Equal(t, "a", updates[0].ID)
	require.NotNil(t, updates[0].Cluster)
	assert.Equal(t, 2, *updates[0].Cluster)
}
