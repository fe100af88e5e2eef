// Package interaction tracks selection and hover state and routes the
// engine's index-based pointer events back to domain nodes.
package interaction

import (
	"sort"
	"sync"
	"time"

	"graphview/pkg/engine"
	"graphview/pkg/logging"
)

// Mode is the selection state
type Mode string

const (
	ModeNone   Mode = "none"
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// DoubleClickWindow is the timing window separating a double click from
// two single clicks
const DoubleClickWindow = 300 * time.Millisecond

// Changed describes a selection transition for subscribers
type Changed struct {
	Mode    Mode     `json:"mode"`
	IDs     []string `json:"ids"`
	Hovered string   `json:"hovered,omitempty"`
	Focused string   `json:"focused,omitempty"`
}

// Selection is the state machine over {none, hovered, single, multi}.
// Every transition is forwarded to the engine's own selection API so the
// visual and logical state never diverge.
type Selection struct {
	engine   engine.Engine
	onChange func(Changed)

	mu        sync.Mutex
	selected  map[string]int // id -> engine point index
	hovered   string
	lastClick struct {
		id string
		at time.Time
	}
}

// NewSelection creates an empty selection bound to an engine
func NewSelection(eng engine.Engine, onChange func(Changed)) *Selection {
	return &Selection{
		engine:   eng,
		onChange: onChange,
		selected: make(map[string]int),
	}
}

// Mode returns the current selection mode
func (s *Selection) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modeLocked()
}

func (s *Selection) modeLocked() Mode {
	switch len(s.selected) {
	case 0:
		return ModeNone
	case 1:
		return ModeSingle
	default:
		return ModeMulti
	}
}

// IDs returns the selected node ids, sorted for stable output
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idsLocked()
}

func (s *Selection) idsLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Click handles a resolved pointer click. With the multi-select modifier
// the node toggles in and out of the selection; without it the click
// replaces the selection. A second click on the same node within the
// double-click window focuses it instead.
func (s *Selection) Click(id string, index int, multiModifier bool, at time.Time) {
	s.mu.Lock()

	isDouble := s.lastClick.id == id && !s.lastClick.at.IsZero() &&
		at.Sub(s.lastClick.at) <= DoubleClickWindow
	s.lastClick.id = id
	s.lastClick.at = at

	if isDouble {
		s.lastClick.at = time.Time{} // A triple click is two doubles, not three
		s.mu.Unlock()
		s.focus(id, index)
		return
	}

	if multiModifier {
		if _, ok := s.selected[id]; ok {
			delete(s.selected, id)
		} else {
			s.selected[id] = index
		}
	} else {
		s.selected = map[string]int{id: index}
	}
	s.mu.Unlock()

	s.sync("")
}

// SelectIDs programmatically replaces the selection (search results,
// cluster picks)
func (s *Selection) SelectIDs(ids []string, indexOf func(string) (int, bool)) {
	s.mu.Lock()
	s.selected = make(map[string]int, len(ids))
	for _, id := range ids {
		if i, ok := indexOf(id); ok {
			s.selected[id] = i
		}
	}
	s.mu.Unlock()

	s.sync("")
}

// Clear empties the selection. The state returns to none, never to a
// previous selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	s.selected = make(map[string]int)
	s.hovered = ""
	s.mu.Unlock()

	if err := s.engine.ClearSelection(); err != nil {
		logging.Warn("engine clear-selection failed", "error", err)
	}
	s.notify("")
}

// Hover updates the hovered node; empty id clears it
func (s *Selection) Hover(id string) {
	s.mu.Lock()
	if s.hovered == id {
		s.mu.Unlock()
		return
	}
	s.hovered = id
	s.mu.Unlock()

	s.notify("")
}

// focus forwards a double click to the engine viewport
func (s *Selection) focus(id string, index int) {
	if err := s.engine.Focus(index); err != nil {
		logging.Warn("engine focus failed", "index", index, "error", err)
	}
	s.notify(id)
}

// Reindex remaps selected indices after a reconciliation pass moved
// nodes; ids that no longer resolve leave the selection.
func (s *Selection) Reindex(indexOf func(string) (int, bool)) {
	s.mu.Lock()
	changed := false
	for id := range s.selected {
		i, ok := indexOf(id)
		if !ok {
			delete(s.selected, id)
			changed = true
			continue
		}
		if s.selected[id] != i {
			s.selected[id] = i
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.sync("")
	}
}

// sync pushes the selection into the engine and notifies subscribers
func (s *Selection) sync(focused string) {
	s.mu.Lock()
	indices := make([]int, 0, len(s.selected))
	for _, i := range s.selected {
		indices = append(indices, i)
	}
	s.mu.Unlock()
	sort.Ints(indices)

	var err error
	if len(indices) == 0 {
		err = s.engine.ClearSelection()
	} else {
		err = s.engine.Select(indices)
	}
	if err != nil {
		// Engine-call failures are no-ops; worst case the visual
		// selection lags one transition behind
		logging.Warn("engine select failed", "error", err)
	}

	s.notify(focused)
}

func (s *Selection) notify(focused string) {
	if s.onChange == nil {
		return
	}
	s.mu.Lock()
	c := Changed{
		Mode:    s.modeLocked(),
		IDs:     s.idsLocked(),
		Hovered: s.hovered,
		Focused: focused,
	}
	s.mu.Unlock()
	s.onChange(c)
}
