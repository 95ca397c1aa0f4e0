// Package watcher watches the configuration file and triggers hot reloads.
// It handles editors that replace the file via rename and debounces bursts
// of write events.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/MishraAmit1/gajpatiadmin/internal/config"
)

const (
	// replaceCheckDelay lets an atomic replace (rename) settle before a
	// Remove event is treated as a real deletion.
	replaceCheckDelay    = 50 * time.Millisecond
	configReloadDebounce = 150 * time.Millisecond
)

// Watcher observes the config file and invokes the reload callback with the
// freshly parsed configuration whenever its effective content changes.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)
	watcher        *fsnotify.Watcher

	mu          sync.Mutex
	reloadTimer *time.Timer
	lastYAML    []byte
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(configPath string, current *config.Config, reloadCallback func(*config.Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: init failed: %w", err)
	}
	w := &Watcher{
		configPath:     configPath,
		reloadCallback: reloadCallback,
		watcher:        fsWatcher,
	}
	if current != nil {
		w.lastYAML, _ = yaml.Marshal(current)
	}
	return w, nil
}

// Start begins watching and blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	// Watch the directory, not the file: rename-based saves would otherwise
	// drop the watch.
	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watcher: watch %s failed: %w", dir, err)
	}
	log.Debugf("watching config file %s", w.configPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("config watcher error: %v", err)
		}
	}
}

// Stop stops the watcher and cancels any pending reload.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
		w.reloadTimer = nil
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
		return
	}

	if event.Op&fsnotify.Remove != 0 {
		// Editors often replace via rename; only report a deletion if the
		// file is still gone after the rename settles.
		time.AfterFunc(replaceCheckDelay, func() {
			if _, err := os.Stat(w.configPath); os.IsNotExist(err) {
				log.Warnf("config file %s removed; keeping last known configuration", w.configPath)
			} else {
				w.scheduleReload()
			}
		})
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
		w.scheduleReload()
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reloadTimer != nil {
		w.reloadTimer.Stop()
	}
	w.reloadTimer = time.AfterFunc(configReloadDebounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.Warnf("config reload skipped: %v", err)
		return
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		log.Warnf("config reload skipped: marshal failed: %v", err)
		return
	}

	w.mu.Lock()
	unchanged := string(raw) == string(w.lastYAML)
	if !unchanged {
		w.lastYAML = raw
	}
	w.mu.Unlock()

	if unchanged {
		log.Debug("config file touched but content unchanged")
		return
	}

	log.Info("configuration reloaded")
	if w.reloadCallback != nil {
		w.reloadCallback(cfg)
	}
}
