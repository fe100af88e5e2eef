// Package search ranks nodes against a label query.
package search

import (
	"sort"
	"strings"

	"graphview/pkg/model"
)

// Match tiers, best first
const (
	tierExact = iota
	tierPrefix
	tierSubstring
)

// Result is one ranked hit
type Result struct {
	Node model.Node `json:"node"`
	Tier int        `json:"tier"` // 0 exact, 1 prefix, 2 substring
}

// Query searches node labels case-insensitively and ranks exact matches
// above prefix matches above substring matches. Within a tier the input
// order is preserved (stable sort), so repeated queries return results in
// a stable order. limit <= 0 means no limit.
func Query(nodes []model.Node, query string, limit int) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	results := make([]Result, 0)
	for _, n := range nodes {
		label := strings.ToLower(n.Label)
		switch {
		case label == q:
			results = append(results, Result{Node: n, Tier: tierExact})
		case strings.HasPrefix(label, q):
			results = append(results, Result{Node: n, Tier: tierPrefix})
		case strings.Contains(label, q):
			results = append(results, Result{Node: n, Tier: tierSubstring})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Tier < results[j].Tier
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// IDs extracts the node ids from ranked results, in order
func IDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Node.ID
	}
	return ids
}
