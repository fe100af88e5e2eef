// Package centrality computes graph importance metrics, parameterized by
// algorithm name.
package centrality

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"graphview/pkg/model"
)

// Algorithm names accepted by Compute
const (
	AlgorithmDegree      = "degree"
	AlgorithmPageRank    = "pagerank"
	AlgorithmBetweenness = "betweenness"
	AlgorithmEigenvector = "eigenvector"
)

// Options tune the iterative algorithms
type Options struct {
	Damping    float64 `json:"damping"`    // PageRank damping factor
	Tolerance  float64 `json:"tolerance"`  // Convergence tolerance
	Iterations int     `json:"iterations"` // Power-iteration cap
}

// DefaultOptions returns the standard parameters
func DefaultOptions() Options {
	return Options{Damping: 0.85, Tolerance: 1e-6, Iterations: 100}
}

// indexedGraph maps string node ids onto a gonum directed graph
type indexedGraph struct {
	g    *simple.DirectedGraph
	ids  map[string]int64 // node id -> gonum id
	back map[int64]string // gonum id -> node id
}

func buildGraph(nodes []model.Node, links []model.Link) *indexedGraph {
	ig := &indexedGraph{
		g:    simple.NewDirectedGraph(),
		ids:  make(map[string]int64, len(nodes)),
		back: make(map[int64]string, len(nodes)),
	}

	var next int64
	for _, n := range nodes {
		if _, ok := ig.ids[n.ID]; ok {
			continue
		}
		ig.ids[n.ID] = next
		ig.back[next] = n.ID
		ig.g.AddNode(simple.Node(next))
		next++
	}

	for _, l := range links {
		si, ok := ig.ids[l.Source]
		if !ok {
			continue
		}
		ti, ok := ig.ids[l.Target]
		if !ok || si == ti {
			continue
		}
		if !ig.g.HasEdgeFromTo(si, ti) {
			ig.g.SetEdge(ig.g.NewEdge(simple.Node(si), simple.Node(ti)))
		}
	}

	return ig
}

// Compute runs the named algorithm and returns node id -> score
func Compute(algorithm string, nodes []model.Node, links []model.Link, opts Options) (map[string]float64, error) {
	def := DefaultOptions()
	if opts.Damping == 0 {
		opts.Damping = def.Damping
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.Iterations == 0 {
		opts.Iterations = def.Iterations
	}

	switch strings.ToLower(algorithm) {
	case AlgorithmDegree:
		return degree(nodes, links), nil
	case AlgorithmPageRank:
		ig := buildGraph(nodes, links)
		return ig.remap(network.PageRank(ig.g, opts.Damping, opts.Tolerance)), nil
	case AlgorithmBetweenness:
		ig := buildGraph(nodes, links)
		return ig.remap(network.Betweenness(ig.g)), nil
	case AlgorithmEigenvector:
		return eigenvector(nodes, links, opts), nil
	default:
		return nil, fmt.Errorf("unknown centrality algorithm %q", algorithm)
	}
}

// remap translates gonum scores back to node ids; nodes the algorithm
// omitted (betweenness reports only nonzero scores) get 0
func (ig *indexedGraph) remap(scores map[int64]float64) map[string]float64 {
	out := make(map[string]float64, len(ig.ids))
	for id, gid := range ig.ids {
		out[id] = scores[gid]
	}
	return out
}

// degree counts in+out edges per node
func degree(nodes []model.Node, links []model.Link) map[string]float64 {
	out := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		out[n.ID] = 0
	}
	for _, l := range links {
		_, srcOK := out[l.Source]
		_, tgtOK := out[l.Target]
		if !srcOK || !tgtOK {
			// Links into nodes outside the snapshot do not count
			continue
		}
		out[l.Source]++
		out[l.Target]++
	}
	return out
}

// eigenvector runs power iteration on the undirected adjacency. gonum's
// network package has no eigenvector centrality, so this is computed
// directly; HITS was rejected because its hub/authority split does not
// match the single score the viewer displays.
func eigenvector(nodes []model.Node, links []model.Link, opts Options) map[string]float64 {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	adj := make([][]int, len(nodes))
	for _, l := range links {
		si, ok := index[l.Source]
		if !ok {
			continue
		}
		ti, ok := index[l.Target]
		if !ok || si == ti {
			continue
		}
		adj[si] = append(adj[si], ti)
		adj[ti] = append(adj[ti], si)
	}

	vec := make([]float64, len(nodes))
	next := make([]float64, len(nodes))
	for i := range vec {
		vec[i] = 1
	}

	for iter := 0; iter < opts.Iterations; iter++ {
		for i := range next {
			next[i] = 0
		}
		for i, neighbors := range adj {
			for _, j := range neighbors {
				next[i] += vec[j]
			}
		}

		var norm float64
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			break
		}

		var delta float64
		for i := range next {
			next[i] /= norm
			delta += math.Abs(next[i] - vec[i])
		}
		vec, next = next, vec

		if delta < opts.Tolerance {
			break
		}
	}

	out := make(map[string]float64, len(nodes))
	for id, i := range index {
		out[id] = vec[i]
	}
	return out
}

// ApplyScores writes scores onto node metrics, returning update deltas
// suitable for the reconciler
func ApplyScores(algorithm string, nodes []model.Node, scores map[string]float64) []model.Node {
	updates := make([]model.Node, 0, len(scores))
	for _, n := range nodes {
		score, ok := scores[n.ID]
		if !ok {
			continue
		}
		m := n.Metrics
		switch strings.ToLower(algorithm) {
		case AlgorithmDegree:
			m.Degree = score
		case AlgorithmPageRank:
			m.PageRank = score
		case AlgorithmBetweenness:
			m.Betweenness = score
		case AlgorithmEigenvector:
			m.Eigenvector = score
		}
		updates = append(updates, model.Node{ID: n.ID, Metrics: m})
	}
	return updates
}
