package render

import (
	"hash/fnv"

	"graphview/pkg/model"
)

// typePalette maps well-known node types to fixed colors so graphs stay
// visually stable across sessions
var typePalette = map[model.NodeType]string{
	model.NodeTypeEntity:   "#4c78a8",
	model.NodeTypeConcept:  "#f58518",
	model.NodeTypeDocument: "#54a24b",
	model.NodeTypeEvent:    "#e45756",
}

// clusterPalette cycles for cluster coloring
var clusterPalette = []string{
	"#4c78a8", "#f58518", "#54a24b", "#e45756", "#72b7b2",
	"#eeca3b", "#b279a2", "#ff9da6", "#9d755d", "#bab0ac",
}

const fallbackColor = "#8c8c8c"

func colorFor(n model.Node, cfg Config) string {
	if cfg.ColorBy == "cluster" {
		if n.Cluster == nil {
			return fallbackColor
		}
		return clusterPalette[*n.Cluster%len(clusterPalette)]
	}

	if c, ok := typePalette[n.Type]; ok {
		return c
	}
	// Unknown types get a stable color derived from the type tag
	if n.Type == "" {
		return fallbackColor
	}
	h := fnv.New32a()
	h.Write([]byte(n.Type))
	return clusterPalette[int(h.Sum32())%len(clusterPalette)]
}
