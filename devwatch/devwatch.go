// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package devwatch provides a development-time shader source
// directory watcher. It only signals "recompilation needed" over a
// channel; shader cross-compilation itself is out of scope here —
// the caller's own build step is expected to listen and act.
package devwatch

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/nope-engine/ngl/log"
)

// Watcher watches one or more shader source directories.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changed chan string
	done    chan struct{}
}

// WatchShaderDir starts watching dir (recursively is not supported;
// callers add one directory per call) for writes/creates/removes of
// files matching any of exts (e.g. ".glsl", ".vert", ".frag"). The
// returned channel receives the changed file's path; it is closed
// when the Watcher is closed.
func WatchShaderDir(dir string, exts ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{fsw: fsw, changed: make(chan string, 16), done: make(chan struct{})}
	go w.run(exts)
	return w, nil
}

func matches(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) run(exts []string) {
	defer close(w.changed)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Remove) {
				continue
			}
			if !matches(ev.Name, exts) {
				continue
			}
			select {
			case w.changed <- ev.Name:
			default:
				log.Warn("devwatch: dropped change notification, channel full", "path", ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("devwatch: watch error", "err", err)
		case <-w.done:
			return
		}
	}
}

// Changed returns the channel of changed shader source paths.
func (w *Watcher) Changed() <-chan string { return w.changed }

// Close stops watching and releases the underlying OS resources.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
