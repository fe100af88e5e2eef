package engine

import (
	"sync"

	"graphview/pkg/render"
)

// Memory is an in-process engine used by tests and the report mode. It
// records every command so callers can assert on render counts.
type Memory struct {
	mu        sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once

	points    []render.PointRecord
	links     []render.LinkRecord
	selection []int
	focused   int

	InitCount int
	DiffCount int
	closed    bool
}

// NewMemory creates a ready in-process engine
func NewMemory() *Memory {
	m := &Memory{ready: make(chan struct{}), focused: -1}
	m.readyOnce.Do(func() { close(m.ready) })
	return m
}

func (m *Memory) Ready() <-chan struct{} {
	return m.ready
}

func (m *Memory) Init(frame render.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append([]render.PointRecord(nil), frame.Points...)
	m.links = append([]render.LinkRecord(nil), frame.Links...)
	m.InitCount++
	return nil
}

func (m *Memory) ApplyDiff(diff *render.Diff) error {
	if diff.Empty() {
		return nil
	}
	if diff.Full {
		return m.Init(render.Frame{Points: diff.AddedPoints, Links: diff.AddedLinks})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := make(map[string]bool, len(diff.RemovedPoints))
	for _, id := range diff.RemovedPoints {
		removed[id] = true
	}
	kept := m.points[:0]
	for _, p := range m.points {
		if !removed[p.ID] {
			kept = append(kept, p)
		}
	}
	m.points = kept
	for _, mod := range diff.ModifiedPoints {
		for i := range m.points {
			if m.points[i].ID == mod.ID {
				m.points[i] = mod
				break
			}
		}
	}
	m.points = append(m.points, diff.AddedPoints...)
	for i := range m.points {
		m.points[i].Index = i
	}

	removedLinks := make(map[string]bool, len(diff.RemovedLinks))
	for _, key := range diff.RemovedLinks {
		removedLinks[key] = true
	}
	keptLinks := m.links[:0]
	for _, l := range m.links {
		if !removedLinks[l.Key()] {
			keptLinks = append(keptLinks, l)
		}
	}
	m.links = append(keptLinks, diff.AddedLinks...)

	m.DiffCount++
	return nil
}

func (m *Memory) Select(indices []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = append([]int(nil), indices...)
	return nil
}

func (m *Memory) ClearSelection() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = nil
	return nil
}

func (m *Memory) Focus(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = index
	return nil
}

func (m *Memory) PointByIndex(index int) (render.PointRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.points) {
		return render.PointRecord{}, false
	}
	return m.points[index], true
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Selection returns the current engine selection
func (m *Memory) Selection() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.selection...)
}

// Focused returns the focused point index, or -1
func (m *Memory) Focused() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

// Points returns the engine's current point buffer
func (m *Memory) Points() []render.PointRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]render.PointRecord(nil), m.points...)
}

// Links returns the engine's current link buffer
func (m *Memory) Links() []render.LinkRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]render.LinkRecord(nil), m.links...)
}

// Renders returns how many times the engine redrew (init + diff)
func (m *Memory) Renders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InitCount + m.DiffCount
}
