package cluster

import "graphview/pkg/model"

// tarjan computes strongly connected components over string node ids.
// Iterative so deep chains cannot blow the stack.
type tarjan struct {
	adj     map[string][]string
	order   []string
	index   int
	stack   []string
	onStack map[string]bool
	indices map[string]int
	lowLink map[string]int
	sccs    [][]string
}

// stronglyConnected groups nodes by strongly connected component
func stronglyConnected(nodes []model.Node, links []model.Link) [][]string {
	t := &tarjan{
		adj:     make(map[string][]string, len(nodes)),
		order:   make([]string, 0, len(nodes)),
		onStack: make(map[string]bool),
		indices: make(map[string]int),
		lowLink: make(map[string]int),
	}

	for _, n := range nodes {
		if _, ok := t.adj[n.ID]; ok {
			continue
		}
		t.adj[n.ID] = nil
		t.order = append(t.order, n.ID)
	}
	for _, l := range links {
		if _, ok := t.adj[l.Source]; !ok {
			continue
		}
		if _, ok := t.adj[l.Target]; !ok {
			continue
		}
		t.adj[l.Source] = append(t.adj[l.Source], l.Target)
	}

	for _, id := range t.order {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

type tarjanFrame struct {
	id   string
	next int // position in adjacency list to resume from
}

func (t *tarjan) strongConnect(root string) {
	frames := []tarjanFrame{{id: root}}
	t.visit(root)

	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		advanced := false

		for f.next < len(t.adj[f.id]) {
			succ := t.adj[f.id][f.next]
			f.next++

			if _, visited := t.indices[succ]; !visited {
				t.visit(succ)
				frames = append(frames, tarjanFrame{id: succ})
				advanced = true
				break
			}
			if t.onStack[succ] {
				t.lowLink[f.id] = min(t.lowLink[f.id], t.indices[succ])
			}
		}
		if advanced {
			continue
		}

		// Frame exhausted: close the component if this is its root
		if t.lowLink[f.id] == t.indices[f.id] {
			var scc []string
			for {
				w := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[w] = false
				scc = append(scc, w)
				if w == f.id {
					break
				}
			}
			t.sccs = append(t.sccs, scc)
		}

		done := f.id
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := &frames[len(frames)-1]
			t.lowLink[parent.id] = min(t.lowLink[parent.id], t.lowLink[done])
		}
	}
}

func (t *tarjan) visit(id string) {
	t.indices[id] = t.index
	t.lowLink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true
}
