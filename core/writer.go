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

package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultMaxSizeMB 单个日志文件默认最大100MB
	DefaultMaxSizeMB = 100
	// DefaultMaxBackups 默认保留的历史文件数量
	DefaultMaxBackups = 7
	// DefaultMaxAgeDays 历史日志文件的默认保存周期，单位为天
	DefaultMaxAgeDays = 30
	// DailyRotateSpec 每天凌晨0点执行轮转，精确到秒
	DailyRotateSpec = "0 0 0 * * *"
)

// Writer 定义抽象的Writer接口，支持文件、终端等输出
type Writer interface {
	io.Writer
	// Flush 刷新缓冲区
	Flush() error
	// Close 释放资源
	Close() error
}

var _ Writer = (*FileWriter)(nil)

type fileConfig struct {
	maxSizeMB   int
	maxBackups  int
	maxAgeDays  int
	compress    bool
	localTime   bool
	dailyRotate bool
	location    string
}

type FileOption func(*fileConfig)

// WithMaxSize 设置单个文件的大小，单位为MB
func WithMaxSize(mb int) FileOption {
	return func(c *fileConfig) {
		c.maxSizeMB = mb
	}
}

// WithMaxBackups 设置保留的历史文件数量
func WithMaxBackups(n int) FileOption {
	return func(c *fileConfig) {
		c.maxBackups = n
	}
}

// WithMaxAge 设置历史日志文件的保存周期，单位为天
func WithMaxAge(days int) FileOption {
	return func(c *fileConfig) {
		c.maxAgeDays = days
	}
}

// WithCompress 开启历史日志文件压缩
func WithCompress() FileOption {
	return func(c *fileConfig) {
		c.compress = true
	}
}

// WithLocalTime 历史文件名使用本地时间，默认UTC
func WithLocalTime() FileOption {
	return func(c *fileConfig) {
		c.localTime = true
	}
}

// WithDailyRotate 开启每日零点轮转，location为时区名称，为空时使用本地时区
func WithDailyRotate(location string) FileOption {
	return func(c *fileConfig) {
		c.dailyRotate = true
		c.location = location
	}
}

// FileWriter 文件写入器，按大小轮转由lumberjack完成，按天轮转由cron定时任务触发
type FileWriter struct {
	lg *lumberjack.Logger
	cr *cron.Cron
	// 加锁保护
	lock sync.Mutex
	// 单例
	once sync.Once
}

func NewFileWriter(filename string, opts ...FileOption) (*FileWriter, error) {
	if filename == "" {
		return nil, errors.New("filename cannot be empty")
	}

	cfg := &fileConfig{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.maxSizeMB <= 0 || cfg.maxBackups < 0 || cfg.maxAgeDays < 0 {
		return nil, fmt.Errorf("invalid file writer options, size: %d, backups: %d, age: %d",
			cfg.maxSizeMB, cfg.maxBackups, cfg.maxAgeDays)
	}

	fw := &FileWriter{
		lg: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
	}

	if cfg.dailyRotate {
		if err := fw.startDailyRotate(cfg.location); err != nil {
			return nil, err
		}
	}

	return fw, nil
}

// startDailyRotate 开启一个异步的定时任务，每天凌晨0点准时进行日志轮转
func (f *FileWriter) startDailyRotate(location string) error {
	loc := time.Local
	if location != "" {
		l, err := time.LoadLocation(location)
		if err != nil {
			return fmt.Errorf("load location %s fail: %w", location, err)
		}
		loc = l
	}

	cr := cron.New(
		cron.WithLocation(loc),
		cron.WithSeconds())
	_, err := cr.AddFunc(DailyRotateSpec, func() {
		if err := f.Rotate(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to rotate log file, err: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add rotate cron job: %w", err)
	}

	f.cr = cr
	cr.Start()
	return nil
}

func (f *FileWriter) Write(p []byte) (n int, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.lg.Write(p)
}

// Rotate 立即轮转，当前文件改名为历史文件并打开新文件
func (f *FileWriter) Rotate() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.lg.Rotate()
}

// Flush lumberjack直接写入文件，没有需要刷新的缓冲区
func (f *FileWriter) Flush() error {
	return nil
}

// Close 停止定时任务并关闭文件，可重复调用
func (f *FileWriter) Close() error {
	var err error
	f.once.Do(func() {
		if f.cr != nil {
			<-f.cr.Stop().Done()
		}

		f.lock.Lock()
		defer f.lock.Unlock()
		err = f.lg.Close()
	})

	return err
}
