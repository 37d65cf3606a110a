/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package writer

import (
	"context"
	"log"

	"github.com/Comcast/quill/core"
)

// base is the machinery every writer shares: the Machine, the
// Settings, the link to a parent, and disposal.
type base[T any] struct {
	settings Settings
	m        *core.Machine[T]

	// source is the name the writer was created under by its
	// parent.  Empty for a top-level writer.
	source string

	// notify reaches the parent.  It's cleared once used.
	notify core.Notify

	disposed bool
}

func newBase[T any](g *core.Grammar, s Settings, source string, notify core.Notify) (*base[T], error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	m, err := core.NewMachine[T](g, s.maxDepth())
	if err != nil {
		return nil, err
	}
	return &base[T]{
		settings: s,
		m:        m,
		source:   source,
		notify:   notify,
	}, nil
}

// State returns the current state.
func (b *base[T]) State() core.State {
	return b.m.Current()
}

// Path returns the states of all open scopes, outermost first.
func (b *base[T]) Path() []core.State {
	return b.m.Path()
}

// History returns every state the writer has been in.
func (b *base[T]) History() []core.State {
	return b.m.History()
}

// Dispose makes the writer unusable.  Subsequent operations return
// core.ErrDisposed without touching the writer's state.
func (b *base[T]) Dispose() {
	b.disposed = true
}

func (b *base[T]) logf(format string, args ...interface{}) {
	if b.settings.Debug {
		log.Printf(b.m.Grammar.Name+" writer "+format, args...)
	}
}

// check is the gate in front of every public operation.  It never
// changes anything.
func (b *base[T]) check(async bool) error {
	if b.disposed {
		return core.ErrDisposed
	}
	return b.settings.Mode.Check(async)
}

func (b *base[T]) sequence(op string) error {
	return &core.SequenceError{
		Grammar: b.m.Grammar.Name,
		From:    b.m.Current(),
		Op:      op,
	}
}

// require returns a SequenceError unless the current state is one of
// those given.
func (b *base[T]) require(op string, states ...core.State) error {
	cur := b.m.Current()
	for _, s := range states {
		if s == cur {
			return nil
		}
	}
	return b.sequence(op)
}

// live returns a SequenceError if the writer is completed or failed.
func (b *base[T]) live(op string) error {
	if b.m.Kind().Terminal() {
		return b.sequence(op)
	}
	return nil
}

// latch forces the error state and tells the parent.
func (b *base[T]) latch(err error) bool {
	if !b.m.Fail() {
		return false
	}
	b.logf("failed: %v", err)
	if n := b.notify; n != nil {
		b.notify = nil
		n(core.Event{Kind: core.EventFailed, Source: b.source, Err: err})
	}
	return true
}

// completed tells the parent that this writer is done.
func (b *base[T]) completed() error {
	b.logf("completed")
	if n := b.notify; n != nil {
		b.notify = nil
		return n(core.Event{Kind: core.EventCompleted, Source: b.source})
	}
	return nil
}

// latcher keeps Latch off the writers' exported method sets.
type latcher[T any] struct {
	b *base[T]
}

func (l latcher[T]) Latch(err error) bool {
	return l.b.latch(err)
}

// The run and intercept helpers are the latching wrapper.  A writer
// that's already completed or failed runs the operation outside it,
// so the rejection leaves the state alone.

func (b *base[T]) run(f func() error) error {
	if b.m.Kind().Terminal() {
		return f()
	}
	return core.Run(latcher[T]{b}, f)
}

func (b *base[T]) runContext(ctx context.Context, f func(context.Context) error) error {
	if b.m.Kind().Terminal() {
		return f(ctx)
	}
	return core.RunContext(ctx, latcher[T]{b}, f)
}

// flushCompleted is the flush that follows completion.  A failure
// moves the writer from completed to error.
func (b *base[T]) flushCompleted(flush func() error) error {
	return core.Run(latcher[T]{b}, flush)
}

func (b *base[T]) flushCompletedContext(ctx context.Context, flush func(context.Context) error) error {
	return core.RunContext(ctx, latcher[T]{b}, flush)
}

func intercept[R, T any](b *base[T], f func() (R, error)) (R, error) {
	if b.m.Kind().Terminal() {
		return f()
	}
	return core.Intercept(latcher[T]{b}, f)
}

func interceptContext[R, T any](ctx context.Context, b *base[T], f func(context.Context) (R, error)) (R, error) {
	if b.m.Kind().Terminal() {
		return f(ctx)
	}
	return core.InterceptContext(ctx, latcher[T]{b}, f)
}
