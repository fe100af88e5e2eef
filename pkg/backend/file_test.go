package backend

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"graphview/pkg/model"
)

func writeSnapshot(t *testing.T, path string, g model.Graph) {
	t.Helper()
	data := `{"nodes":[`
	for i, n := range g.Nodes {
		if i > 0 {
			data += ","
		}
		data += `{"id":"` + n.ID + `"}`
	}
	data += `],"links":[]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	writeSnapshot(t, path, model.Graph{Nodes: []model.Node{{ID: "a"}, {ID: "b"}}})

	g, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(g.Nodes))
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadSnapshotInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{nope"), 0o644)

	if _, err := LoadSnapshot(path); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestFileSourceReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	writeSnapshot(t, path, model.Graph{Nodes: []model.Node{{ID: "a"}}})

	var mu sync.Mutex
	var loads []int
	source, err := NewFileSource(path, func(g model.Graph) {
		mu.Lock()
		loads = append(loads, len(g.Nodes))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewFileSource failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Initial load happens synchronously in Start
	mu.Lock()
	if len(loads) != 1 || loads[0] != 1 {
		t.Fatalf("Expected initial load of 1 node, got %v", loads)
	}
	mu.Unlock()

	// Rewrite with more nodes and wait for the watcher
	writeSnapshot(t, path, model.Graph{Nodes: []model.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(loads)
		last := 0
		if n > 0 {
			last = loads[n-1]
		}
		mu.Unlock()
		if last == 3 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("Timeout waiting for reload, loads: %v", loads)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestFileSourceIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	writeSnapshot(t, path, model.Graph{Nodes: []model.Node{{ID: "a"}}})

	var mu sync.Mutex
	count := 0
	source, err := NewFileSource(path, func(g model.Graph) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewFileSource failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := source.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Writes to other files in the watched directory are ignored
	os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("Expected only the initial load, got %d", count)
	}
}
