// Package session wires store, adapter, engine, and pubsub into one
// explicitly managed lifecycle: created once per server, torn down on
// Close. Cross-cutting data preparation (centrality, clustering, search
// selection) is serialized through the session instead of a process-wide
// coordinator object.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"graphview/pkg/backend"
	"graphview/pkg/centrality"
	"graphview/pkg/cluster"
	"graphview/pkg/engine"
	"graphview/pkg/interaction"
	"graphview/pkg/logging"
	"graphview/pkg/model"
	"graphview/pkg/pubsub"
	"graphview/pkg/render"
	"graphview/pkg/search"
	"graphview/pkg/store"
)

// Options configure a session
type Options struct {
	QuietPeriod time.Duration
	MaxWait     time.Duration
	Render      render.Config
	Client      *backend.Client // Optional query API for remote centrality
}

// Session owns the full pipeline from delta intake to engine commands
type Session struct {
	store     *store.Store
	batcher   *store.Batcher
	adapter   *render.Adapter
	engine    engine.Engine
	selection *interaction.Selection
	router    *interaction.Router
	publisher pubsub.Publisher
	client    *backend.Client

	mu       sync.Mutex // Orders frame builds with the engine commands they produce
	cfg      render.Config
	snapshot *render.Snapshot

	cancel context.CancelFunc
	closed bool
}

// New creates and starts a session
func New(eng engine.Engine, publisher pubsub.Publisher, opts Options) *Session {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = 50 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 500 * time.Millisecond
	}
	if opts.Render == (render.Config{}) {
		opts.Render = render.DefaultConfig()
	}

	s := &Session{
		store:     store.New(),
		adapter:   render.NewAdapter(),
		engine:    eng,
		publisher: publisher,
		client:    opts.Client,
		cfg:       opts.Render,
	}
	s.selection = interaction.NewSelection(eng, s.publishSelection)
	s.router = interaction.NewRouter(s.store, eng, s.selection)
	s.batcher = store.NewBatcher(s.store, opts.QuietPeriod, opts.MaxWait, s.onFlush)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.batcher.Start(ctx)

	return s
}

// Close tears the session down, flushing pending deltas first
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	<-s.batcher.Done()
	if err := s.engine.Close(); err != nil {
		logging.Warn("engine close failed", "error", err)
	}
}

// Enqueue queues a delta batch for the next coalesced reconciliation
func (s *Session) Enqueue(d model.Delta) {
	s.batcher.Enqueue(d)
}

// Replace swaps in a complete snapshot and reinitializes the engine
func (s *Session) Replace(g model.Graph) {
	cs, diags := s.store.Replace(g)
	s.logDiagnostics(diags)

	// The lock spans snapshot to engine command so a concurrent flush
	// cannot slip a diff built from the old store in after the init
	s.mu.Lock()
	nodes, links := s.store.Snapshot()
	frame, _ := s.adapter.Build(nodes, links, s.cfg)
	s.snapshot = render.NewSnapshot(frame)
	if err := s.engine.Init(frame); err != nil {
		logging.Warn("engine init failed", "error", err)
	}
	s.selection.Reindex(s.store.IndexOf)
	s.mu.Unlock()

	s.publishStatus("ready", fmt.Sprintf("loaded %d nodes, %d links",
		len(g.Nodes), len(g.Links)))
	logging.Info("snapshot replaced",
		"nodes", len(nodes), "links", len(links), "version", cs.Version)
}

// onFlush runs once per coalesced batch: rebuild the frame, diff against
// the previous one, and issue at most one engine command
func (s *Session) onFlush(cs store.ChangeSet, diags []store.Diagnostic) {
	s.logDiagnostics(diags)
	if !cs.Changed() {
		return
	}

	s.mu.Lock()
	nodes, links := s.store.Snapshot()
	frame, rebuilt := s.adapter.Build(nodes, links, s.cfg)
	if !rebuilt {
		// Memoized frame: nothing visual changed, skip the render
		s.mu.Unlock()
		return
	}
	diff := render.ComputeDiff(s.snapshot, frame)
	s.snapshot = render.NewSnapshot(frame)
	if diff.Empty() {
		s.mu.Unlock()
		return
	}
	if err := s.engine.ApplyDiff(diff); err != nil {
		logging.Warn("engine diff failed", "error", err)
	}
	s.selection.Reindex(s.store.IndexOf)
	s.mu.Unlock()

	logging.Debug("applied reconciliation",
		"version", cs.Version,
		"nodesAdded", cs.NodesAdded,
		"nodesRemoved", cs.NodesRemoved,
		"linksAdded", cs.LinksAdded,
		"linksRemoved", cs.LinksRemoved)
}

// SetRenderConfig changes the visual mapping and replays the full frame
func (s *Session) SetRenderConfig(cfg render.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg

	nodes, links := s.store.Snapshot()
	frame, rebuilt := s.adapter.Build(nodes, links, cfg)
	if rebuilt {
		s.snapshot = render.NewSnapshot(frame)
		if err := s.engine.Init(frame); err != nil {
			logging.Warn("engine init failed", "error", err)
		}
	}
}

// RenderConfig returns the current visual mapping
func (s *Session) RenderConfig() render.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Frame returns the current engine frame
func (s *Session) Frame() render.Frame {
	nodes, links := s.store.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, _ := s.adapter.Build(nodes, links, s.cfg)
	return frame
}

// Store exposes the authoritative graph state
func (s *Session) Store() *store.Store {
	return s.store
}

// Selection exposes the selection state machine
func (s *Session) Selection() *interaction.Selection {
	return s.selection
}

// Router exposes the pointer event router
func (s *Session) Router() *interaction.Router {
	return s.router
}

// Search runs a ranked label query over the current nodes
func (s *Session) Search(query string, limit int) []search.Result {
	nodes, _ := s.store.Snapshot()
	return search.Query(nodes, query, limit)
}

// Centrality computes (or requests) a metric and applies it to the graph
// through the regular delta path, so the update renders like any other.
func (s *Session) Centrality(ctx context.Context, algorithm string, opts centrality.Options) (map[string]float64, error) {
	nodes, links := s.store.Snapshot()

	var scores map[string]float64
	var err error
	if s.client != nil {
		scores, err = s.client.RequestCentrality(ctx, algorithm, opts)
		if err != nil {
			// Remote failure falls back to local computation
			logging.Warn("backend centrality failed, computing locally",
				"algorithm", algorithm, "error", err)
			scores, err = centrality.Compute(algorithm, nodes, links, opts)
		}
	} else {
		scores, err = centrality.Compute(algorithm, nodes, links, opts)
	}
	if err != nil {
		return nil, err
	}

	updates := centrality.ApplyScores(algorithm, nodes, scores)
	if len(updates) > 0 {
		s.Enqueue(model.Delta{
			Op:      model.OpUpdate,
			Nodes:   updates,
			BatchID: uuid.New().String(),
		})
	}
	return scores, nil
}

// Cluster assigns nodes to clusters and applies the assignment
func (s *Session) Cluster(algorithm string) (map[string]int, error) {
	nodes, links := s.store.Snapshot()

	assignments, err := cluster.Assign(algorithm, nodes, links)
	if err != nil {
		return nil, err
	}

	updates := cluster.ApplyAssignments(nodes, assignments)
	if len(updates) > 0 {
		s.Enqueue(model.Delta{
			Op:      model.OpUpdate,
			Nodes:   updates,
			BatchID: uuid.New().String(),
		})
	}
	return assignments, nil
}

func (s *Session) logDiagnostics(diags []store.Diagnostic) {
	for _, d := range diags {
		logging.Warn("reconciliation diagnostic",
			"kind", d.Kind, "subject", d.Subject,
			"detail", d.Detail, "batch", d.BatchID)
	}
}

// publishSelection mirrors selection transitions onto the pubsub topic
func (s *Session) publishSelection(c interaction.Changed) {
	if s.publisher == nil {
		return
	}
	state := pubsub.SelectionState{
		Mode:    string(c.Mode),
		IDs:     c.IDs,
		Hovered: c.Hovered,
	}
	if err := s.publisher.Publish(pubsub.TopicSelection, "changed", state); err != nil {
		logging.Warn("selection publish failed", "error", err)
	}
}

// publishStatus emits a status banner event
func (s *Session) publishStatus(state, message string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(pubsub.TopicStatus, state, pubsub.Status{
		State:   state,
		Message: message,
	}); err != nil {
		logging.Warn("status publish failed", "error", err)
	}
}

// PublishStatus lets collaborators (feed, loader) surface status banners
func (s *Session) PublishStatus(state, message string) {
	s.publishStatus(state, message)
}
