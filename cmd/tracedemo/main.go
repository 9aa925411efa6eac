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

// tracedemo 追踪一段示例调用并输出调用链日志。
//
// 用法:
//
//	tracedemo [选项]
//
// 选项:
//
//	-c, --config     配置文件路径，支持yaml和json
//	-o, --log-file   输出到文件，按大小和按天轮转，默认输出到标准输出
//	--level          日志级别，比如"all"或"info|debug"
//	--no-combine     关闭无子调用合并
//	--no-repeat      关闭重复调用折叠
//	--color          级别标签上色
//	--async          异步写入
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TimeWtr/tracex"
	"github.com/TimeWtr/tracex/core"
	"github.com/urfave/cli/v3"
)

var Version = "0.1.0-dev"

func main() {
	if err := createApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "tracedemo",
		Usage:   "trace a sample workload and print the call trace",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (yaml or json)",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Aliases: []string{"o"},
				Usage:   "write to a rotating file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "level",
				Usage: "log level, e.g. all or info|debug",
				Value: "all",
			},
			&cli.BoolFlag{
				Name:  "no-combine",
				Usage: "disable combining childless calls",
			},
			&cli.BoolFlag{
				Name:  "no-repeat",
				Usage: "disable folding repeated calls",
			},
			&cli.BoolFlag{
				Name:  "color",
				Usage: "colorize level tags",
			},
			&cli.BoolFlag{
				Name:  "async",
				Usage: "write lines from a background goroutine",
			},
		},
		Action: runDemo,
	}
}

func loadConfig(cmd *cli.Command) (*tracex.Config, error) {
	cfg := tracex.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = tracex.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if cmd.Bool("no-combine") {
		cfg.Format.CombineChildlessCalls = false
	}
	if cmd.Bool("no-repeat") {
		cfg.Format.CombineRepeatCalls = false
	}

	return cfg, nil
}

func newSink(cmd *cli.Command) (tracex.Sink, error) {
	var opts []tracex.SinkOption
	if cmd.Bool("color") {
		opts = append(opts, tracex.WithColor())
	}

	var (
		sink tracex.Sink
		err  error
	)
	if path := cmd.String("log-file"); path != "" {
		opts = append(opts, tracex.WithFileOptions(core.WithDailyRotate("Local"), core.WithCompress()))
		sink, err = tracex.NewFileSink(path, opts...)
	} else {
		sink, err = tracex.NewWriterSink(os.Stdout, append(opts, tracex.WithFlags(0))...)
	}
	if err != nil {
		return nil, err
	}

	if cmd.Bool("async") {
		return tracex.NewAsyncSink(sink, tracex.DefaultAsyncCapacity)
	}

	return sink, nil
}

func runDemo(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, err := tracex.ParseLevel(cmd.String("level"))
	if err != nil {
		return err
	}

	tracer, err := tracex.NewTracer(tracex.WithConfig(cfg))
	if err != nil {
		return err
	}

	sink, err := newSink(cmd)
	if err != nil {
		return err
	}

	logger, err := tracex.NewLogger(tracer, sink, level)
	if err != nil {
		return err
	}

	s := newStore(tracer, logger)
	if err = s.instrument(); err != nil {
		return errors.Join(err, logger.Close())
	}
	s.run()

	return logger.Close()
}
