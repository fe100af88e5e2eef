// Package engine defines the boundary to the external WebGL rendering
// engine. Everything behind this interface (force simulation, spatial
// indexing, drawing, picking) is owned by the engine itself; this layer
// only issues imperative commands and mirrors enough state to answer
// index lookups.
package engine

import "graphview/pkg/render"

// Engine is the imperative surface of the rendering engine.
//
// Ready replaces the ad hoc readiness polling loops of earlier adapter
// implementations: the channel is closed once the engine can accept
// commands, and callers block on it instead of sampling a flag.
type Engine interface {
	// Ready is closed once the engine accepts commands
	Ready() <-chan struct{}

	// Init hands the engine a complete frame, reinitializing its
	// simulation. Expensive; callers should prefer ApplyDiff.
	Init(frame render.Frame) error

	// ApplyDiff mutates engine state incrementally
	ApplyDiff(diff *render.Diff) error

	// Select replaces the engine's selection with the given point indices
	Select(indices []int) error

	// ClearSelection empties the engine's selection
	ClearSelection() error

	// Focus centers the viewport on one point
	Focus(index int) error

	// PointByIndex returns the engine's authoritative record for an
	// index. Used as a fallback when local id lookups go stale.
	PointByIndex(index int) (render.PointRecord, bool)

	// Close releases engine resources
	Close() error
}
