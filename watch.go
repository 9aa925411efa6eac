// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracex

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/TimeWtr/tracex/errorx"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 配置文件变更的默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// ReloadCallback 配置重载回调，err不为nil表示重载失败，此时Tracer继续使用旧配置
type ReloadCallback func(cfg *Config, err error)

type WatchOption func(*ConfigWatcher)

// WithDebounce 设置防抖时间，时间内的多次变更只触发一次重载
func WithDebounce(d time.Duration) WatchOption {
	return func(w *ConfigWatcher) {
		w.debounce = d
	}
}

// WithReloadCallback 设置重载回调
func WithReloadCallback(cb ReloadCallback) WatchOption {
	return func(w *ConfigWatcher) {
		w.callback = cb
	}
}

// ConfigWatcher 监视配置文件，变更后重新加载并替换Tracer的配置。
// 监视的是配置文件所在目录，编辑器保存时先删除再创建文件也不会丢失事件
type ConfigWatcher struct {
	path     string
	tracer   *Tracer
	watcher  *fsnotify.Watcher
	debounce time.Duration
	callback ReloadCallback
	// 关闭信号
	sig chan struct{}
	// 退出完成信号
	done chan struct{}
	// 单例
	once sync.Once
	// 加锁保护timer
	lock  sync.Mutex
	timer *time.Timer
}

func NewConfigWatcher(path string, t *Tracer, opts ...WatchOption) (*ConfigWatcher, error) {
	if path == "" {
		return nil, errorx.ErrEmptyPath
	}
	if t == nil {
		return nil, errorx.ErrNilTracer
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err = fsWatcher.Add(dir); err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to watch directory %s: %w", dir, err),
			fsWatcher.Close())
	}

	w := &ConfigWatcher{
		path:     filepath.Clean(path),
		tracer:   t,
		watcher:  fsWatcher,
		debounce: DefaultDebounce,
		sig:      make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()

	return w, nil
}

func (w *ConfigWatcher) run() {
	defer close(w.done)

	for {
		select {
		case <-w.sig:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.notify(nil, err)
		}
	}
}

// schedule 防抖，重置定时器
func (w *ConfigWatcher) schedule() {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	select {
	case <-w.sig:
		return
	default:
	}

	cfg, err := LoadConfig(w.path)
	if err == nil {
		err = w.tracer.SetConfig(cfg)
	}
	w.notify(cfg, err)
}

func (w *ConfigWatcher) notify(cfg *Config, err error) {
	if w.callback != nil {
		w.callback(cfg, err)
	}
}

// Close 停止监视，可重复调用
func (w *ConfigWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.sig)
		w.lock.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.lock.Unlock()

		err = w.watcher.Close()
		<-w.done
	})

	return err
}
