package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变化，重新加载并回调最新配置。
// 监听的是所在目录，编辑器用 rename 方式保存文件时也能收到事件。
type Watcher struct {
	path     string
	cooldown time.Duration
	fsw      *fsnotify.Watcher
	last     time.Time
}

func NewWatcher(path string, cooldown time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}
	return &Watcher{path: filepath.Clean(path), cooldown: cooldown, fsw: fsw}, nil
}

// Run blocks until ctx is done or the watcher is closed. Invalid configs are
// reported through onError and the previous config stays in effect.
// A change that lands inside the cooldown is not lost: the reload is deferred
// until the cooldown ends.
func (w *Watcher) Run(ctx context.Context, onUpdate func(AppConfig), onError func(error)) error {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	reload := func() {
		cfg, err := LoadWithEnvOverrides(w.path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		w.last = time.Now()
		if onUpdate != nil {
			onUpdate(cfg)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pending:
			pending = nil
			reload()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.cooldown > 0 {
				if wait := w.cooldown - time.Since(w.last); wait > 0 {
					// 冷却期内只保留一次延迟重载
					if pending == nil {
						timer = time.NewTimer(wait)
						pending = timer.C
					}
					continue
				}
			}
			if pending != nil {
				timer.Stop()
				pending = nil
			}
			reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(fmt.Errorf("watch %s: %w", w.path, err))
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
