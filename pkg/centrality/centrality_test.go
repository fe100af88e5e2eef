package centrality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphview/pkg/model"
)

func nodes(ids ...string) []model.Node {
	out := make([]model.Node, len(ids))
	for i, id := range ids {
		out[i] = model.Node{ID: id, Label: id}
	}
	return out
}

func link(src, tgt string) model.Link {
	return model.Link{Source: src, Target: tgt, Type: "r"}
}

// star returns a hub "c" with spokes pointing at it
func star() ([]model.Node, []model.Link) {
	return nodes("a", "b", "c", "d"), []model.Link{
		link("a", "c"), link("b", "c"), link("d", "c"),
	}
}

func TestDegree(t *testing.T) {
	ns, ls := star()
	scores, err := Compute(AlgorithmDegree, ns, ls, DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 3.0, scores["c"])
	assert.Equal(t, 1.0, scores["a"])
	assert.Equal(t, 1.0, scores["b"])
}

func TestDegreeIsolatedNodeIsZero(t *testing.T) {
	scores, err := Compute(AlgorithmDegree, nodes("lonely"), nil, DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 0.0, scores["lonely"])
}

func TestPageRankFavorsSink(t *testing.T) {
	ns, ls := star()
	scores, err := Compute(AlgorithmPageRank, ns, ls, DefaultOptions())

	require.NoError(t, err)
	require.Len(t, scores, 4)
	assert.Greater(t, scores["c"], scores["a"])
	assert.Greater(t, scores["c"], scores["b"])

	// Scores sum to roughly 1
	var sum float64
	for _, v := range scores {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestBetweennessFavorsBridge(t *testing.T) {
	ns := nodes("a", "b", "c")
	ls := []model.Link{link("a", "b"), link("b", "c")}

	scores, err := Compute(AlgorithmBetweenness, ns, ls, DefaultOptions())

	require.NoError(t, err)
	assert.Greater(t, scores["b"], scores["a"])
	assert.Greater(t, scores["b"], scores["c"])
	// Endpoints sit on no shortest path between other nodes
	assert.Equal(t, 0.0, scores["a"])
}

func TestEigenvectorFavorsHub(t *testing.T) {
	ns, ls := star()
	scores, err := Compute(AlgorithmEigenvector, ns, ls, DefaultOptions())

	require.NoError(t, err)
	assert.Greater(t, scores["c"], scores["a"])
	// Symmetric spokes score identically
	assert.InDelta(t, scores["a"], scores["b"], 1e-9)
	assert.InDelta(t, scores["a"], scores["d"], 1e-9)
}

func TestEigenvectorEmptyGraph(t *testing.T) {
	scores, err := Compute(AlgorithmEigenvector, nil, nil, DefaultOptions())

	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := Compute("katz", nil, nil, DefaultOptions())
	assert.Error(t, err)
}

func TestZeroOptionsGetDefaults(t *testing.T) {
	ns, ls := star()

	// All-zero options must not divide by zero or run forever
	scores, err := Compute(AlgorithmPageRank, ns, ls, Options{})

	require.NoError(t, err)
	assert.Greater(t, scores["c"], 0.0)
}

func TestLinksToMissingNodesIgnored(t *testing.T) {
	ns := nodes("a", "b")
	ls := []model.Link{link("a", "b"), link("a", "ghost"), link("ghost", "b")}

	scores, err := Compute(AlgorithmDegree, ns, ls, DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, 1.0, scores["a"])
	assert.Equal(t, 1.0, scores["b"])
	_, ok := scores["ghost"]
	assert.False(t, ok)
}

func TestApplyScores(t *testing.T) {
	ns := nodes("a", "b")
	updates := ApplyScores(AlgorithmPageRank, ns, map[string]float64{"a": 0.7})

	require.Len(t, updates, 1)
	assert.Equal(t, "a", updates[0].ID)
	assert.Equal(t, 0.7, updates[0].Metrics.PageRank)
}

func TestApplyScoresPreservesOtherMetrics(t *testing.T) {
	ns := []model.Node{{ID: "a", Metrics: model.Metrics{Degree: 5}}}
	updates := ApplyScores(AlgorithmEigenvector, ns, map[string]float64{"a": 0.3})

	require.Len(t, updates, 1)
	assert.Equal(t, 5.0, updates[0].Metrics.Degree)
	assert.Equal(t, 0.3, updates[0].Metrics.Eigenvector)
}
