package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"graphview/pkg/logging"
	"graphview/pkg/model"
)

// LoadSnapshot reads a graph snapshot from a local JSON file
func LoadSnapshot(path string) (model.Graph, error) {
	var g model.Graph

	data, err := os.ReadFile(path)
	if err != nil {
		return g, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return g, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return g, nil
}

// FileSource serves a snapshot from disk and reloads it wholesale when
// the file changes. This is the full-data refresh path: the whole graph
// is replaced, not diffed against.
type FileSource struct {
	path    string
	watcher *fsnotify.Watcher
	reload  func(model.Graph)
}

// NewFileSource creates a watching file source. reload is called with
// each new snapshot, including the initial load.
func NewFileSource(path string, reload func(model.Graph)) (*FileSource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot watcher: %w", err)
	}
	return &FileSource{path: path, watcher: watcher, reload: reload}, nil
}

// Start loads the snapshot and begins watching for changes
func (f *FileSource) Start(ctx context.Context) error {
	g, err := LoadSnapshot(f.path)
	if err != nil {
		return err
	}
	f.reload(g)

	// Watch the directory: editors replace files by rename, which drops
	// a watch placed on the file itself
	if err := f.watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch snapshot dir: %w", err)
	}

	logging.Info("watching snapshot", "path", f.path)
	go f.processEvents(ctx)
	return nil
}

func (f *FileSource) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.watcher.Close()
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			g, err := LoadSnapshot(f.path)
			if err != nil {
				// Likely caught mid-write; the next event will retry
				logging.Warn("snapshot reload failed", "error", err)
				continue
			}
			logging.Info("snapshot reloaded",
				"nodes", len(g.Nodes), "links", len(g.Links))
			f.reload(g)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("snapshot watcher error", "error", err)
		}
	}
}
