package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/renderloop/pathtrace/pkg/loaders"
)

// reloadDebounce coalesces the event bursts editors emit on save
const reloadDebounce = 100 * time.Millisecond

// watchScene reloads the scene whenever its file changes on disk.
// Active render streams observe the generation bump and restart from a
// fresh accumulator; the viewer camera keeps its placement.
func (s *Server) watchScene(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Printf("Scene watcher: %v\n", err)
		return
	}
	defer watcher.Close()

	// Watch the directory: editors that replace the file on save would
	// silently drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(s.scenePath)); err != nil {
		s.logger.Printf("Scene watcher: %v\n", err)
		return
	}
	base := filepath.Base(s.scenePath)

	reload := time.NewTimer(reloadDebounce)
	if !reload.Stop() {
		select {
		case <-reload.C:
		default:
		}
	}
	defer reload.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reload.Reset(reloadDebounce)

		case <-reload.C:
			if err := s.reloadScene(); err != nil {
				s.logger.Printf("Scene reload failed: %v\n", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("Scene watcher: %v\n", err)

		case <-ctx.Done():
			return
		}
	}
}

// reloadScene swaps in the scene from disk. A file that fails to load
// leaves the current scene in place. The viewer camera keeps its
// placement; camera reset returns to the new file's placement.
func (s *Server) reloadScene() error {
	loaded, err := loaders.LoadScene(s.scenePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.scene = loaded
	s.home = loaded.Camera
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.logger.Printf("Scene reloaded (generation %d): %d primitives, %d lights\n",
		gen, loaded.PrimitiveCount(), loaded.LightCount())
	return nil
}
