package scenario

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a scenario file must stay quiet before it is
// reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Update is a reload result.
type Update struct {
	Scenario *Scenario
	Err      error
}

// Watcher reloads a scenario file whenever it changes. The file's directory
// is watched so that editors replacing the file are seen too.
type Watcher struct {
	Updates chan Update

	path    string
	delay   time.Duration
	opts    []Option
	watcher *fsnotify.Watcher
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching path. A non-positive delay uses
// DefaultDebounce. Reloads are parsed with opts.
func NewWatcher(path string, delay time.Duration, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{
		Updates: make(chan Update, 1),
		path:    abs,
		delay:   delay,
		opts:    opts,
		watcher: fw,
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher and closes Updates. It is safe to call more than
// once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Updates)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			sc, err := Load(w.path, w.opts...)
			if !w.send(Update{Scenario: sc, Err: err}) {
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if !w.send(Update{Err: err}) {
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) send(u Update) bool {
	select {
	case w.Updates <- u:
		return true
	case <-w.closeCh:
		return false
	}
}
