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

package main

import (
	"errors"
	"fmt"

	"github.com/TimeWtr/tracex"
)

var errOutOfStock = errors.New("out of stock")

// store 示例负载：补货、售卖、盘点
type store struct {
	tracer *tracex.Tracer
	logger *tracex.Logger
	items  map[string]int

	mProcess *tracex.Method
	mRestock *tracex.Method
	mSell    *tracex.Method
	mAudit   *tracex.Method
}

func newStore(t *tracex.Tracer, l *tracex.Logger) *store {
	return &store{
		tracer: t,
		logger: l,
		items:  make(map[string]int),
	}
}

// instrument 注册需要追踪的方法，Logger没有开启Debug时方法标识为nil，调用不被追踪
func (s *store) instrument() error {
	var err error
	if s.mProcess, err = s.logger.LogCalls(s.process); err != nil {
		return err
	}
	if s.mRestock, err = s.logger.LogCalls(s.restock); err != nil {
		return err
	}
	if s.mSell, err = s.logger.LogCalls(s.sell); err != nil {
		return err
	}
	s.mAudit, err = s.logger.LogCalls(s.audit)

	return err
}

func (s *store) run() {
	s.tracer.Call(s.mProcess, s.process)

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warningf("audit aborted: %v", r)
			}
		}()
		s.tracer.Call(s.mAudit, s.audit)
	}()
}

func (s *store) process() {
	for i := 0; i < 3; i++ {
		s.tracer.Call(s.mRestock, func() { s.restock("apple") })
	}
	s.logger.Infof("apple stock: %d", s.items["apple"])

	for i := 0; i < 4; i++ {
		if err := s.tracer.CallErr(s.mSell, func() error { return s.sell("apple") }); err != nil {
			s.logger.Error(err)
		}
	}
}

func (s *store) restock(name string) {
	s.items[name]++
}

func (s *store) sell(name string) error {
	if s.items[name] == 0 {
		return fmt.Errorf("%s: %w", name, errOutOfStock)
	}

	s.items[name]--
	return nil
}

func (s *store) audit() {
	if len(s.items) > 0 {
		panic(fmt.Sprintf("unexpected %d items left", len(s.items)))
	}
}
