// Package render translates authoritative graph state into the record
// shape the external rendering engine consumes.
package render

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"graphview/pkg/model"
)

// Config controls how domain data maps onto visual attributes
type Config struct {
	ColorBy     string  `json:"colorBy"` // "type" or "cluster"
	SizeBy      string  `json:"sizeBy"`  // "degree", "pagerank", "betweenness", "eigenvector"
	MinSize     float64 `json:"minSize"`
	MaxSize     float64 `json:"maxSize"`
	LinkWidthBy string  `json:"linkWidthBy"` // "weight" or "" for constant
}

// DefaultConfig returns the adapter defaults
func DefaultConfig() Config {
	return Config{
		ColorBy:     "type",
		SizeBy:      "degree",
		MinSize:     2,
		MaxSize:     12,
		LinkWidthBy: "weight",
	}
}

// PointRecord is one node in engine shape: stringified id, numeric-coerced
// metrics, and derived color/size/cluster
type PointRecord struct {
	ID      string   `json:"id"`
	Index   int      `json:"index"`
	Label   string   `json:"label"`
	Color   string   `json:"color"`
	Size    float64  `json:"size"`
	Cluster int      `json:"cluster"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
}

// LinkRecord is one link in engine shape, carrying the cached endpoint
// indices into the point array
type LinkRecord struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	SourceIndex int     `json:"sourceIndex"`
	TargetIndex int     `json:"targetIndex"`
	Type        string  `json:"type"`
	Width       float64 `json:"width"`
}

// Key returns the identity of a link record
func (l LinkRecord) Key() string {
	return l.Source + "|" + l.Target + "|" + l.Type
}

// Frame is a complete set of engine records for one state version
type Frame struct {
	Points []PointRecord `json:"points"`
	Links  []LinkRecord  `json:"links"`
	Hash   string        `json:"-"`
}

// Adapter maps {nodes, links, config} to engine records. The mapping is
// memoized on a content hash so unchanged inputs return the cached frame
// and never force the engine to reinitialize its simulation.
type Adapter struct {
	mu       sync.Mutex
	lastHash string
	lastOut  Frame
}

// NewAdapter creates an adapter with an empty cache
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Build produces the engine frame for the given state. The second return
// is false when the inputs hash to the cached frame.
func (a *Adapter) Build(nodes []model.Node, links []model.Link, cfg Config) (Frame, bool) {
	hash := inputHash(nodes, links, cfg)

	a.mu.Lock()
	defer a.mu.Unlock()
	if hash == a.lastHash && a.lastHash != "" {
		return a.lastOut, false
	}

	frame := Frame{
		Points: make([]PointRecord, 0, len(nodes)),
		Links:  make([]LinkRecord, 0, len(links)),
		Hash:   hash,
	}

	lo, hi := metricRange(nodes, cfg.SizeBy)
	for i, n := range nodes {
		cluster := 0
		if n.Cluster != nil {
			cluster = *n.Cluster
		}
		frame.Points = append(frame.Points, PointRecord{
			ID:      n.ID,
			Index:   i,
			Label:   n.Label,
			Color:   colorFor(n, cfg),
			Size:    sizeFor(metricValue(n, cfg.SizeBy), lo, hi, cfg),
			Cluster: cluster,
			X:       n.X,
			Y:       n.Y,
		})
	}

	for _, l := range links {
		width := 1.0
		if cfg.LinkWidthBy == "weight" && l.Weight > 0 {
			width = math.Min(1+math.Log1p(l.Weight), 6)
		}
		frame.Links = append(frame.Links, LinkRecord{
			Source:      l.Source,
			Target:      l.Target,
			SourceIndex: l.SourceIndex,
			TargetIndex: l.TargetIndex,
			Type:        l.Type,
			Width:       width,
		})
	}

	a.lastHash = hash
	a.lastOut = frame
	return frame, true
}

// inputHash hashes the mapping inputs to identify unchanged frames
func inputHash(nodes []model.Node, links []model.Link, cfg Config) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(cfg)
	_ = enc.Encode(nodes)
	_ = enc.Encode(links)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func metricValue(n model.Node, metric string) float64 {
	switch strings.ToLower(metric) {
	case "pagerank":
		return n.Metrics.PageRank
	case "betweenness":
		return n.Metrics.Betweenness
	case "eigenvector":
		return n.Metrics.Eigenvector
	default:
		return n.Metrics.Degree
	}
}

func metricRange(nodes []model.Node, metric string) (lo, hi float64) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, n := range nodes {
		v := metricValue(n, metric)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// sizeFor scales a metric value into [MinSize, MaxSize]
func sizeFor(v, lo, hi float64, cfg Config) float64 {
	if math.IsInf(lo, 1) || hi <= lo {
		return cfg.MinSize
	}
	t := (v - lo) / (hi - lo)
	return cfg.MinSize + t*(cfg.MaxSize-cfg.MinSize)
}
