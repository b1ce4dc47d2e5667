package session

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/WeiyueSUN/packlens-audio-preview/errors"
)

// reloadDebounce absorbs the burst of write events an editor or exporter
// produces while rewriting the source file.
const reloadDebounce = 500 * time.Millisecond

// startWatcher watches the source file's directory and reloads the session
// when the file is rewritten. Watching the directory instead of the file
// survives the rename-and-replace pattern most writers use.
func (s *Session) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "Session", "startWatcher", "create watcher")
	}

	dir := filepath.Dir(s.watchPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.Wrap(err, "Session", "startWatcher", "watch directory")
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.watchStop = func() {
		close(done)
		watcher.Close()
	}
	s.mu.Unlock()

	go s.watchLoop(watcher, done)

	s.logger.Info("watching source file", "path", s.watchPath)
	return nil
}

func (s *Session) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	target := filepath.Clean(s.watchPath)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var fire <-chan time.Time
	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				// Drain a tick that landed between Stop and the last
				// receive, or Reset arms a timer that fires early.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			s.logger.Info("source file changed, reloading", "path", s.watchPath)
			if err := s.Reload(context.Background()); err != nil {
				s.logger.Error("reload after source change failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("source watch error", "error", err)
		}
	}
}
