package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(id string, index int) PointRecord {
	return PointRecord{ID: id, Index: index, Label: id, Color: "#4c78a8", Size: 4}
}

func linkRec(src, tgt string, si, ti int) LinkRecord {
	return LinkRecord{Source: src, Target: tgt, SourceIndex: si, TargetIndex: ti, Type: "r", Width: 1}
}

func TestComputeDiffNilSnapshotIsFull(t *testing.T) {
	next := Frame{
		Points: []PointRecord{point("a", 0)},
		Links:  []LinkRecord{linkRec("a", "a", 0, 0)},
	}
	diff := ComputeDiff(nil, next)

	assert.True(t, diff.Full)
	assert.Len(t, diff.AddedPoints, 1)
	assert.Len(t, diff.AddedLinks, 1)
	assert.False(t, diff.Empty())
}

func TestComputeDiffIdenticalFramesIsEmpty(t *testing.T) {
	frame := Frame{
		Points: []PointRecord{point("a", 0), point("b", 1)},
		Links:  []LinkRecord{linkRec("a", "b", 0, 1)},
	}
	diff := ComputeDiff(NewSnapshot(frame), frame)

	assert.True(t, diff.Empty())
}

func TestComputeDiffAddedAndRemoved(t *testing.T) {
	prev := Frame{Points: []PointRecord{point("a", 0), point("b", 1)}}
	next := Frame{Points: []PointRecord{point("a", 0), point("c", 1)}}

	diff := ComputeDiff(NewSnapshot(prev), next)

	require.Len(t, diff.AddedPoints, 1)
	assert.Equal(t, "c", diff.AddedPoints[0].ID)
	require.Len(t, diff.RemovedPoints, 1)
	assert.Equal(t, "b", diff.RemovedPoints[0])
}

func TestComputeDiffModifiedPoint(t *testing.T) {
	prev := Frame{Points: []PointRecord{point("a", 0)}}
	changed := point("a", 0)
	changed.Color = "#ffffff"
	next := Frame{Points: []PointRecord{changed}}

	diff := ComputeDiff(NewSnapshot(prev), next)

	require.Len(t, diff.ModifiedPoints, 1)
	assert.Equal(t, "#ffffff", diff.ModifiedPoints[0].Color)
	assert.Empty(t, diff.AddedPoints)
	assert.Empty(t, diff.RemovedPoints)
}

func TestComputeDiffPositionChangeIsNotModification(t *testing.T) {
	x1, x2 := 10.0, 99.0
	a1 := point("a", 0)
	a1.X = &x1
	a2 := point("a", 0)
	a2.X = &x2

	diff := ComputeDiff(NewSnapshot(Frame{Points: []PointRecord{a1}}),
		Frame{Points: []PointRecord{a2}})

	// The simulation owns positions once a point is handed over
	assert.True(t, diff.Empty())
}

func TestComputeDiffChangedLinkIsReissued(t *testing.T) {
	prev := Frame{
		Points: []PointRecord{point("a", 0), point("b", 1)},
		Links:  []LinkRecord{linkRec("a", "b", 0, 1)},
	}
	// Same link key, shifted target index
	next := Frame{
		Points: []PointRecord{point("a", 0), point("b", 2)},
		Links:  []LinkRecord{linkRec("a", "b", 0, 2)},
	}

	diff := ComputeDiff(NewSnapshot(prev), next)

	require.Len(t, diff.RemovedLinks, 1)
	require.Len(t, diff.AddedLinks, 1)
	assert.Equal(t, "a|b|r", diff.RemovedLinks[0])
	assert.Equal(t, 2, diff.AddedLinks[0].TargetIndex)
}

func TestComputeDiffRemovedLink(t *testing.T) {
	prev := Frame{
		Points: []PointRecord{point("a", 0), point("b", 1)},
		Links:  []LinkRecord{linkRec("a", "b", 0, 1)},
	}
	next := Frame{Points: prev.Points}

	diff := ComputeDiff(NewSnapshot(prev), next)

	require.Len(t, diff.RemovedLinks, 1)
	assert.Empty(t, diff.AddedLinks)
}
