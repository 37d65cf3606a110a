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

package core

import (
	"context"
	"fmt"
)

// Mode is a writer's execution mode, fixed when the writer is made.
type Mode int

const (
	// Synchronous writers are driven through blocking calls.
	Synchronous Mode = iota

	// Asynchronous writers are driven through the ...Context
	// calls, which can wait on a transport.
	Asynchronous
)

func (m Mode) String() string {
	switch m {
	case Synchronous:
		return "synchronous"
	case Asynchronous:
		return "asynchronous"
	default:
		return "unknown"
	}
}

// Check returns a ConfigError if a call through an asynchronous
// (async is true) or synchronous entry point isn't allowed in this
// mode.
//
// Check must be called before anything else happens so that a
// mode mismatch never changes a writer's state.
func (m Mode) Check(async bool) error {
	switch {
	case m == Synchronous && async:
		return &ConfigError{Msg: "asynchronous call on a synchronous writer"}
	case m == Asynchronous && !async:
		return &ConfigError{Msg: "synchronous call on an asynchronous writer"}
	case m != Synchronous && m != Asynchronous:
		return &ConfigError{Msg: "unknown execution mode"}
	}
	return nil
}

// Latcher is something that can be forced into its error state.
//
// *Machine is a Latcher.  Writers usually wrap a Machine to report
// the failure to a parent as well.
type Latcher interface {
	Latch(err error) bool
}

// PanicError is what a Latcher is given when an operation panics.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Intercept runs f.  If f returns an error or panics, l is latched
// and the error is returned (or the panic continues) unchanged.
func Intercept[T any](l Latcher, f func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.Latch(&PanicError{Value: r})
			panic(r)
		}
	}()
	if result, err = f(); err != nil {
		l.Latch(err)
	}
	return result, err
}

// InterceptContext is Intercept for operations that can wait.
//
// A context that's already done counts as a failure.
func InterceptContext[T any](ctx context.Context, l Latcher, f func(context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.Latch(&PanicError{Value: r})
			panic(r)
		}
	}()
	if err = ctx.Err(); err != nil {
		l.Latch(err)
		return result, err
	}
	if result, err = f(ctx); err != nil {
		l.Latch(err)
	}
	return result, err
}

// Run is Intercept for operations without a result.
func Run(l Latcher, f func() error) error {
	_, err := Intercept(l, func() (struct{}, error) {
		return struct{}{}, f()
	})
	return err
}

// RunContext is InterceptContext for operations without a result.
func RunContext(ctx context.Context, l Latcher, f func(context.Context) error) error {
	_, err := InterceptContext(ctx, l, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f(ctx)
	})
	return err
}
