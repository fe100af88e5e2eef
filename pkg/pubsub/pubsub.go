// Package pubsub fans events out to connected viewer clients.
package pubsub

import (
	"context"
	"encoding/json"
)

// Well-known topics
const (
	TopicRender    = "render"    // Engine commands (frames and diffs)
	TopicStatus    = "status"    // Load/feed state and non-fatal error banners
	TopicSelection = "selection" // Selection state changes
)

// Event is one pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "init", "diff", "loading", "feed_error"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // Per-topic ordering
}

// Subscription is a client subscription to one topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns the channel events arrive on
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a subscription; context cancellation closes it
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// Status is the payload on the status topic
type Status struct {
	State   string `json:"state"` // "loading", "ready", "feed_connected", "feed_error"
	Message string `json:"message"`
}

// SelectionState is the payload on the selection topic
type SelectionState struct {
	Mode    string   `json:"mode"` // "none", "single", "multi"
	IDs     []string `json:"ids"`
	Hovered string   `json:"hovered,omitempty"`
}
