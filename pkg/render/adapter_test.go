package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphview/pkg/model"
)

func testNodes() []model.Node {
	return []model.Node{
		{ID: "a", Label: "Alpha", Type: model.NodeTypeEntity, Metrics: model.Metrics{Degree: 1}},
		{ID: "b", Label: "Beta", Type: model.NodeTypeConcept, Metrics: model.Metrics{Degree: 3}},
		{ID: "c", Label: "Gamma", Type: model.NodeTypeDocument, Metrics: model.Metrics{Degree: 5}},
	}
}

func testLinks() []model.Link {
	return []model.Link{
		{Source: "a", Target: "b", SourceIndex: 0, TargetIndex: 1, Type: "related", Weight: 2},
	}
}

func TestBuildAssignsSequentialIndices(t *testing.T) {
	a := NewAdapter()
	frame, changed := a.Build(testNodes(), testLinks(), DefaultConfig())

	assert.True(t, changed)
	require.Len(t, frame.Points, 3)
	for i, p := range frame.Points {
		assert.Equal(t, i, p.Index)
	}
	require.Len(t, frame.Links, 1)
	assert.Equal(t, 0, frame.Links[0].SourceIndex)
	assert.Equal(t, 1, frame.Links[0].TargetIndex)
}

func TestBuildMemoizesUnchangedInputs(t *testing.T) {
	a := NewAdapter()
	nodes, links := testNodes(), testLinks()
	cfg := DefaultConfig()

	first, changed := a.Build(nodes, links, cfg)
	require.True(t, changed)

	// Same inputs: cached frame, no rebuild
	second, changed := a.Build(nodes, links, cfg)
	assert.False(t, changed)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestBuildRebuildsOnDataChange(t *testing.T) {
	a := NewAdapter()
	nodes := testNodes()
	cfg := DefaultConfig()

	first, _ := a.Build(nodes, nil, cfg)

	nodes[0].Label = "Renamed"
	second, changed := a.Build(nodes, nil, cfg)

	assert.True(t, changed)
	assert.NotEqual(t, first.Hash, second.Hash)
	assert.Equal(t, "Renamed", second.Points[0].Label)
}

func TestBuildRebuildsOnConfigChange(t *testing.T) {
	a := NewAdapter()
	nodes := testNodes()

	a.Build(nodes, nil, DefaultConfig())

	cfg := DefaultConfig()
	cfg.SizeBy = "pagerank"
	_, changed := a.Build(nodes, nil, cfg)

	assert.True(t, changed, "config change must invalidate the cache")
}

func TestSizeScalesIntoConfiguredRange(t *testing.T) {
	a := NewAdapter()
	cfg := DefaultConfig()
	frame, _ := a.Build(testNodes(), nil, cfg)

	// Degrees 1, 3, 5 scale to min, midpoint, max
	assert.Equal(t, cfg.MinSize, frame.Points[0].Size)
	assert.Equal(t, cfg.MaxSize, frame.Points[2].Size)
	assert.Greater(t, frame.Points[1].Size, frame.Points[0].Size)
	assert.Less(t, frame.Points[1].Size, frame.Points[2].Size)
}

func TestUniformMetricUsesMinSize(t *testing.T) {
	a := NewAdapter()
	nodes := []model.Node{
		{ID: "a", Metrics: model.Metrics{Degree: 2}},
		{ID: "b", Metrics: model.Metrics{Degree: 2}},
	}
	cfg := DefaultConfig()
	frame, _ := a.Build(nodes, nil, cfg)

	for _, p := range frame.Points {
		assert.Equal(t, cfg.MinSize, p.Size)
	}
}

func TestColorByType(t *testing.T) {
	a := NewAdapter()
	frame, _ := a.Build(testNodes(), nil, DefaultConfig())

	assert.Equal(t, typePalette[model.NodeTypeEntity], frame.Points[0].Color)
	assert.Equal(t, typePalette[model.NodeTypeConcept], frame.Points[1].Color)
}

func TestColorByCluster(t *testing.T) {
	a := NewAdapter()
	c0, c1 := 0, 1
	nodes := []model.Node{
		{ID: "a", Cluster: &c0},
		{ID: "b", Cluster: &c1},
		{ID: "c"}, // unassigned
	}
	cfg := DefaultConfig()
	cfg.ColorBy = "cluster"
	frame, _ := a.Build(nodes, nil, cfg)

	assert.Equal(t, clusterPalette[0], frame.Points[0].Color)
	assert.Equal(t, clusterPalette[1], frame.Points[1].Color)
	assert.Equal(t, fallbackColor, frame.Points[2].Color)
}

func TestUnknownTypeGetsStableColor(t *testing.T) {
	a := NewAdapter()
	nodes := []model.Node{{ID: "a", Type: "custom"}}

	first, _ := a.Build(nodes, nil, DefaultConfig())
	a2 := NewAdapter()
	second, _ := a2.Build(nodes, nil, DefaultConfig())

	assert.Equal(t, first.Points[0].Color, second.Points[0].Color)
	assert.NotEqual(t, "", first.Points[0].Color)
}

func TestLinkWidthFollowsWeight(t *testing.T) {
	a := NewAdapter()
	nodes := testNodes()
	links := []model.Link{
		{Source: "a", Target: "b", Type: "r", Weight: 1},
		{Source: "b", Target: "c", Type: "r", Weight: 1000},
	}
	frame, _ := a.Build(nodes, links, DefaultConfig())

	assert.Greater(t, frame.Links[1].Width, frame.Links[0].Width)
	assert.LessOrEqual(t, frame.Links[1].Width, 6.0, "width is capped")
}
