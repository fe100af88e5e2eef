package output

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"graphview/pkg/model"
)

// PrintGraphReport prints a colored console summary of a graph: counts,
// type breakdown, the most central nodes, and cluster sizes
func PrintGraphReport(source string, nodes []model.Node, links []model.Link, topN int) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Graph View - Summary Report")
	bold.Println("===========================")
	fmt.Printf("Source: %s\n", source)
	fmt.Printf("Nodes: %d\n", len(nodes))
	fmt.Printf("Links: %d\n", len(links))
	fmt.Println()

	// Type breakdown
	byType := make(map[string]int)
	for _, n := range nodes {
		t := string(n.Type)
		if t == "" {
			t = "(untyped)"
		}
		byType[t]++
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if byType[types[i]] != byType[types[j]] {
			return byType[types[i]] > byType[types[j]]
		}
		return types[i] < types[j]
	})
	cyan.Println("NODE TYPES:")
	for _, t := range types {
		fmt.Printf("  %-12s %d\n", t, byType[t])
	}
	fmt.Println()

	printTopCentral(nodes, topN, yellow, cyan)
	printClusters(nodes, green)
}

func printTopCentral(nodes []model.Node, topN int, heading, entry *color.Color) {
	scored := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Metrics.PageRank > 0 || n.Metrics.Degree > 0 {
			scored = append(scored, n)
		}
	}
	if len(scored) == 0 {
		return
	}
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Metrics.PageRank != b.Metrics.PageRank {
			return a.Metrics.PageRank > b.Metrics.PageRank
		}
		if a.Metrics.Degree != b.Metrics.Degree {
			return a.Metrics.Degree > b.Metrics.Degree
		}
		return a.ID < b.ID
	})
	if topN > len(scored) {
		topN = len(scored)
	}

	heading.Println("MOST CENTRAL NODES:")
	for _, n := range scored[:topN] {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		entry.Printf("  %s\n", label)
		fmt.Printf("    degree=%.0f pagerank=%.4f\n", n.Metrics.Degree, n.Metrics.PageRank)
	}
	fmt.Println()
}

func printClusters(nodes []model.Node, heading *color.Color) {
	sizes := make(map[int]int)
	for _, n := range nodes {
		if n.Cluster != nil {
			sizes[*n.Cluster]++
		}
	}
	if len(sizes) == 0 {
		return
	}
	ids := make([]int, 0, len(sizes))
	for id := range sizes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	heading.Printf("CLUSTERS: %d\n", len(sizes))
	for _, id := range ids {
		fmt.Printf("  cluster %d: %d node(s)\n", id, sizes[id])
	}
}
