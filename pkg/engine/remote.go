package engine

import (
	"sync"

	"graphview/pkg/logging"
	"graphview/pkg/pubsub"
	"graphview/pkg/render"
)

// Remote drives rendering engines running in browser clients. Commands are
// published on the render topic; each connected client replays them against
// its local engine instance. The remote mirrors the last applied frame so
// PointByIndex is answerable without a round trip.
//
// A command failure here means no client is listening, which is harmless:
// late subscribers receive the current frame from the topic replay buffer.
type Remote struct {
	publisher pubsub.Publisher
	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.RWMutex
	points []render.PointRecord // mirror of the engine's point buffer
	byID   map[string]int
}

// NewRemote creates a remote engine over the given publisher
func NewRemote(p pubsub.Publisher) *Remote {
	return &Remote{
		publisher: p,
		ready:     make(chan struct{}),
		byID:      make(map[string]int),
	}
}

// Ready is closed on the first successful command
func (r *Remote) Ready() <-chan struct{} {
	return r.ready
}

func (r *Remote) markReady() {
	r.readyOnce.Do(func() { close(r.ready) })
}

// publish sends one engine command; failures are logged and swallowed so a
// missing client never breaks reconciliation
func (r *Remote) publish(eventType string, data interface{}) error {
	if err := r.publisher.Publish(pubsub.TopicRender, eventType, data); err != nil {
		logging.Warn("engine command not delivered", "command", eventType, "error", err)
		return nil
	}
	r.markReady()
	return nil
}

// Init replaces the engine state with a complete frame
func (r *Remote) Init(frame render.Frame) error {
	r.mu.Lock()
	r.points = append(r.points[:0], frame.Points...)
	r.byID = make(map[string]int, len(frame.Points))
	for _, p := range frame.Points {
		r.byID[p.ID] = p.Index
	}
	r.mu.Unlock()

	return r.publish("init", frame)
}

// ApplyDiff applies an incremental mutation
func (r *Remote) ApplyDiff(diff *render.Diff) error {
	if diff.Empty() {
		return nil
	}
	if diff.Full {
		return r.Init(render.Frame{Points: diff.AddedPoints, Links: diff.AddedLinks})
	}

	r.mu.Lock()
	removed := make(map[string]bool, len(diff.RemovedPoints))
	for _, id := range diff.RemovedPoints {
		removed[id] = true
	}
	if len(removed) > 0 {
		kept := r.points[:0]
		for _, p := range r.points {
			if !removed[p.ID] {
				kept = append(kept, p)
			}
		}
		r.points = kept
		// Removals shifted positions, so the id index is stale until rebuilt
		r.byID = make(map[string]int, len(r.points))
		for i, p := range r.points {
			r.byID[p.ID] = i
		}
	}
	for _, p := range diff.ModifiedPoints {
		if i, ok := r.byID[p.ID]; ok {
			r.points[i] = p
		}
	}
	r.points = append(r.points, diff.AddedPoints...)

	// Renumber: the engine compacts its buffer the same way the store
	// compacts the node array, so positions stay aligned
	r.byID = make(map[string]int, len(r.points))
	for i, p := range r.points {
		p.Index = i
		r.points[i] = p
		r.byID[p.ID] = i
	}
	r.mu.Unlock()

	return r.publish("diff", diff)
}

// Select replaces the engine selection
func (r *Remote) Select(indices []int) error {
	return r.publish("select", map[string][]int{"indices": indices})
}

// ClearSelection empties the engine selection
func (r *Remote) ClearSelection() error {
	return r.publish("clear_selection", struct{}{})
}

// Focus centers the viewport on a point
func (r *Remote) Focus(index int) error {
	return r.publish("focus", map[string]int{"index": index})
}

// PointByIndex answers from the mirrored frame
func (r *Remote) PointByIndex(index int) (render.PointRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.points) {
		return render.PointRecord{}, false
	}
	return r.points[index], true
}

// Close is a no-op; clients notice via their subscription closing
func (r *Remote) Close() error {
	return nil
}
