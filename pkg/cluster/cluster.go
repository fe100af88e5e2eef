// Package cluster assigns nodes to clusters for group coloring.
package cluster

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"graphview/pkg/model"
)

// Algorithm names accepted by Assign
const (
	AlgorithmComponents = "components" // Weakly connected components
	AlgorithmSCC        = "scc"        // Strongly connected components
	AlgorithmModularity = "modularity" // Louvain community detection
)

// Assign computes node id -> cluster for the named algorithm. Cluster
// numbering is deterministic: clusters are ordered by size descending,
// ties by the smallest member id.
func Assign(algorithm string, nodes []model.Node, links []model.Link) (map[string]int, error) {
	var groups [][]string
	switch strings.ToLower(algorithm) {
	case AlgorithmComponents:
		groups = components(nodes, links)
	case AlgorithmSCC:
		groups = stronglyConnected(nodes, links)
	case AlgorithmModularity:
		groups = modularity(nodes, links)
	default:
		return nil, fmt.Errorf("unknown clustering algorithm %q", algorithm)
	}

	return number(groups), nil
}

// ApplyAssignments produces update deltas carrying the new cluster fields
func ApplyAssignments(nodes []model.Node, assignments map[string]int) []model.Node {
	updates := make([]model.Node, 0, len(assignments))
	for _, n := range nodes {
		c, ok := assignments[n.ID]
		if !ok {
			continue
		}
		cluster := c
		updates = append(updates, model.Node{ID: n.ID, Cluster: &cluster})
	}
	return updates
}

// number orders groups deterministically and flattens to id -> cluster
func number(groups [][]string) map[string]int {
	for _, g := range groups {
		sort.Strings(g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})

	out := make(map[string]int)
	for c, g := range groups {
		for _, id := range g {
			out[id] = c
		}
	}
	return out
}

// components finds weakly connected components with a BFS over the
// undirected adjacency
func components(nodes []model.Node, links []model.Link) [][]string {
	adj := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		adj[n.ID] = nil
	}
	for _, l := range links {
		if _, ok := adj[l.Source]; !ok {
			continue
		}
		if _, ok := adj[l.Target]; !ok {
			continue
		}
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
	}

	seen := make(map[string]bool, len(nodes))
	var groups [][]string
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		group := []string{}
		queue := []string{n.ID}
		seen[n.ID] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			group = append(group, id)
			for _, next := range adj[id] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// modularity runs Louvain community detection on the undirected graph
func modularity(nodes []model.Node, links []model.Link) [][]string {
	g := simple.NewUndirectedGraph()
	ids := make(map[string]int64, len(nodes))
	back := make(map[int64]string, len(nodes))

	var next int64
	for _, n := range nodes {
		if _, ok := ids[n.ID]; ok {
			continue
		}
		ids[n.ID] = next
		back[next] = n.ID
		g.AddNode(simple.Node(next))
		next++
	}
	for _, l := range links {
		si, ok := ids[l.Source]
		if !ok {
			continue
		}
		ti, ok := ids[l.Target]
		if !ok || si == ti {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(si), simple.Node(ti)))
	}

	reduced := community.Modularize(g, 1.0, nil)
	var groups [][]string
	for _, comm := range reduced.Communities() {
		group := make([]string, 0, len(comm))
		for _, n := range comm {
			group = append(group, back[n.ID()])
		}
		groups = append(groups, group)
	}
	return groups
}
