package packs

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the pattern set when pack files change on disk. Used by
// serve mode; one-shot hook invocations load fresh each run.
type Watcher struct {
	fsw    *fsnotify.Watcher
	reload func() error
	warnf  func(format string, args ...any)
	done   chan struct{}
}

// debounce absorbs editor write bursts into one reload.
const debounce = 200 * time.Millisecond

// Watch starts watching dir and invokes reload after changes settle.
func Watch(dir string, reload func() error, warnf func(format string, args ...any)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("pack watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("pack watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, reload: reload, warnf: warnf, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if err := w.reload(); err != nil && w.warnf != nil {
				w.warnf("pack reload failed: %v", err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.warnf != nil {
				w.warnf("pack watcher error: %v", err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
