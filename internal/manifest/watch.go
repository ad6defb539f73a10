package manifest

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay absorbs the burst of create/write events a single `skilllite
// add` (or an editor save) produces, so OnChange fires once per batch of
// edits rather than once per touched file.
const debounceDelay = 300 * time.Millisecond

// Watcher watches <workspaceDir>/skills/ for changes and signals OnChange
// so a long-running process (chat's REPL) can re-run ScanDir without
// requiring a restart. Construction never fails hard: if fsnotify can't
// start, Watcher still exists but OnChange simply never fires.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	watched  map[string]bool
	onChange chan struct{}
	stop     chan struct{}
	timer    *time.Timer
}

// NewWatcher starts watching workspaceDir's skills subdirectory and every
// skill directory inside it, so both "new skill added" and "existing
// skill's SKILL.md edited" trigger a change.
func NewWatcher(workspaceDir string) *Watcher {
	w := &Watcher{
		watched:  make(map[string]bool),
		onChange: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return w // degrade to a Watcher that never signals
	}
	w.fsw = fsw

	skillsDir := filepath.Join(workspaceDir, skillsSubdir)
	w.addWatch(skillsDir)
	if entries, err := os.ReadDir(skillsDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				w.addWatch(filepath.Join(skillsDir, e.Name()))
			}
		}
	}

	go w.loop()
	return w
}

func (w *Watcher) addWatch(path string) {
	if w.fsw == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return
	}
	if err := w.fsw.Add(path); err == nil {
		w.watched[path] = true
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addWatch(event.Name)
				}
			}
			w.scheduleSignal()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) scheduleSignal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		select {
		case w.onChange <- struct{}{}:
		default:
		}
	})
}

// OnChange returns a channel that receives a value shortly after the
// watched directories settle following a burst of filesystem events.
func (w *Watcher) OnChange() <-chan struct{} {
	return w.onChange
}

// Close stops the watcher goroutine and releases the underlying fsnotify
// handle. Safe to call even if construction fell back to a no-op watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
