package model

import "time"

// NodeType classifies a graph entity
type NodeType string

const (
	NodeTypeEntity   NodeType = "entity"
	NodeTypeConcept  NodeType = "concept"
	NodeTypeDocument NodeType = "document"
	NodeTypeEvent    NodeType = "event"
)

// Metrics holds the centrality metrics for a node
type Metrics struct {
	Degree      float64 `json:"degree"`
	PageRank    float64 `json:"pagerank"`
	Betweenness float64 `json:"betweenness"`
	Eigenvector float64 `json:"eigenvector"`
}

// Node represents a graph entity. ID is unique within a snapshot; every
// other field is mutable.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Type       NodeType       `json:"type"`
	Metrics    Metrics        `json:"metrics"`
	X          *float64       `json:"x,omitempty"` // Optional layout position
	Y          *float64       `json:"y,omitempty"`
	Cluster    *int           `json:"cluster,omitempty"` // Optional cluster assignment
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"createdAt,omitempty"`
}

// Link represents a directed relationship between two nodes.
//
// SourceIndex and TargetIndex are a denormalized cache of the endpoint
// positions in the authoritative node array. They must be recomputed
// whenever that array is reordered or resized; a stale index silently
// corrupts rendering and picking downstream.
type Link struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	SourceIndex int     `json:"sourceIndex"`
	TargetIndex int     `json:"targetIndex"`
	Type        string  `json:"type"`
	Weight      float64 `json:"weight"`

	FirstSeen *time.Time `json:"firstSeen,omitempty"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
}

// Key returns the identity of a link within a snapshot
func (l Link) Key() string {
	return l.Source + "|" + l.Target + "|" + l.Type
}

// Graph is a complete snapshot of nodes and links, used for the initial
// bulk load and for wholesale refreshes
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Op tags a delta batch
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Delta is an incremental operation batch streamed from the backend.
// A batch is applied atomically within one debounce window.
type Delta struct {
	Op         Op        `json:"op"`
	Nodes      []Node    `json:"nodes,omitempty"`
	Links      []Link    `json:"links,omitempty"`
	BatchID    string    `json:"batchId,omitempty"`
	ReceivedAt time.Time `json:"-"`
}

// Empty reports whether the delta carries no records
func (d Delta) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Links) == 0
}
