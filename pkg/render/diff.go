package render

// Diff is the incremental change between two frames, in the shape the
// engine's imperative mutation API expects
type Diff struct {
	AddedPoints    []PointRecord `json:"addedPoints"`
	RemovedPoints  []string      `json:"removedPoints"` // Point IDs
	ModifiedPoints []PointRecord `json:"modifiedPoints"`
	AddedLinks     []LinkRecord  `json:"addedLinks"`
	RemovedLinks   []string      `json:"removedLinks"` // Link keys (source|target|type)
	Full           bool          `json:"full"`         // True when this is a complete frame, not a diff
}

// Empty reports whether the diff carries no changes
func (d *Diff) Empty() bool {
	return !d.Full &&
		len(d.AddedPoints) == 0 && len(d.RemovedPoints) == 0 &&
		len(d.ModifiedPoints) == 0 &&
		len(d.AddedLinks) == 0 && len(d.RemovedLinks) == 0
}

// Snapshot indexes a frame for diffing
type Snapshot struct {
	Hash   string
	Points map[string]PointRecord // point id -> record
	Links  map[string]LinkRecord  // link key -> record
}

// NewSnapshot indexes a frame by id/key
func NewSnapshot(f Frame) *Snapshot {
	s := &Snapshot{
		Hash:   f.Hash,
		Points: make(map[string]PointRecord, len(f.Points)),
		Links:  make(map[string]LinkRecord, len(f.Links)),
	}
	for _, p := range f.Points {
		s.Points[p.ID] = p
	}
	for _, l := range f.Links {
		s.Links[l.Key()] = l
	}
	return s
}

// ComputeDiff computes the incremental change from a previous snapshot to
// a new frame. A nil snapshot yields a full-frame diff.
func ComputeDiff(prev *Snapshot, next Frame) *Diff {
	if prev == nil {
		return &Diff{
			AddedPoints: next.Points,
			AddedLinks:  next.Links,
			Full:        true,
		}
	}

	diff := &Diff{
		AddedPoints:    make([]PointRecord, 0),
		RemovedPoints:  make([]string, 0),
		ModifiedPoints: make([]PointRecord, 0),
		AddedLinks:     make([]LinkRecord, 0),
		RemovedLinks:   make([]string, 0),
	}

	nextPoints := make(map[string]PointRecord, len(next.Points))
	for _, p := range next.Points {
		nextPoints[p.ID] = p
	}
	nextLinks := make(map[string]LinkRecord, len(next.Links))
	for _, l := range next.Links {
		nextLinks[l.Key()] = l
	}

	for id, p := range nextPoints {
		old, ok := prev.Points[id]
		if !ok {
			diff.AddedPoints = append(diff.AddedPoints, p)
			continue
		}
		if !pointsEqual(old, p) {
			diff.ModifiedPoints = append(diff.ModifiedPoints, p)
		}
	}
	for id := range prev.Points {
		if _, ok := nextPoints[id]; !ok {
			diff.RemovedPoints = append(diff.RemovedPoints, id)
		}
	}

	for key, l := range nextLinks {
		if old, ok := prev.Links[key]; !ok {
			diff.AddedLinks = append(diff.AddedLinks, l)
		} else if old != l {
			// Links have no modify operation in the engine API; reissue
			diff.RemovedLinks = append(diff.RemovedLinks, key)
			diff.AddedLinks = append(diff.AddedLinks, l)
		}
	}
	for key := range prev.Links {
		if _, ok := nextLinks[key]; !ok {
			diff.RemovedLinks = append(diff.RemovedLinks, key)
		}
	}

	return diff
}

// pointsEqual ignores position, which the engine's simulation owns once a
// point has been handed over
func pointsEqual(a, b PointRecord) bool {
	return a.ID == b.ID &&
		a.Index == b.Index &&
		a.Label == b.Label &&
		a.Color == b.Color &&
		a.Size == b.Size &&
		a.Cluster == b.Cluster
}
