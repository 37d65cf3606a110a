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

var (
	// HistoryInitialCap is the initial capacity for a Machine's
	// history of states.
	HistoryInitialCap = 16
)

// Scope is one level of the Machine's stack.
//
// Item is whatever the writer wants to remember about that level:
// the construct being written, its resolved type, the names already
// used under it.
type Scope[T any] struct {
	State State
	Item  T
}

// Machine is a stack of scopes driven by a Grammar.
//
// The bottom scope is the Grammar's start state (and later its
// completed state).  The top scope is the current state.
//
// A Machine isn't safe for concurrent use.
type Machine[T any] struct {
	Grammar *Grammar

	// MaxDepth is the maximum number of simultaneously open
	// scopes whose states count toward depth.  Zero means no
	// limit.
	MaxDepth int

	scopes  []Scope[T]
	depth   int
	history []State
}

// NewMachine makes a Machine in the Grammar's start state.
func NewMachine[T any](g *Grammar, maxDepth int) (*Machine[T], error) {
	if !g.Compiled() {
		return nil, &GrammarNotCompiled{Grammar: g}
	}
	if maxDepth < 0 {
		return nil, &ConfigError{Msg: "maximum nesting depth must not be negative"}
	}
	m := &Machine[T]{
		Grammar:  g,
		MaxDepth: maxDepth,
		scopes:   make([]Scope[T], 0, 8),
		history:  make([]State, 0, HistoryInitialCap),
	}
	var zero T
	m.push(g.StartState(), zero)
	return m, nil
}

// Current returns the current state.
func (m *Machine[T]) Current() State {
	return m.scopes[len(m.scopes)-1].State
}

// Kind returns the kind of the current state.
func (m *Machine[T]) Kind() Kind {
	return m.Grammar.KindOf(m.Current())
}

// Top returns the current scope.  The pointer is valid until the
// next mutation.
func (m *Machine[T]) Top() *Scope[T] {
	return &m.scopes[len(m.scopes)-1]
}

// Parent returns the scope below the current one, or nil.
func (m *Machine[T]) Parent() *Scope[T] {
	if len(m.scopes) < 2 {
		return nil
	}
	return &m.scopes[len(m.scopes)-2]
}

// Len returns the number of scopes on the stack.
func (m *Machine[T]) Len() int {
	return len(m.scopes)
}

// Depth returns the number of open scopes whose states count toward
// depth.
func (m *Machine[T]) Depth() int {
	return m.depth
}

// Path returns the states on the stack from bottom to top.
func (m *Machine[T]) Path() []State {
	acc := make([]State, len(m.scopes))
	for i, s := range m.scopes {
		acc[i] = s.State
	}
	return acc
}

// History returns the sequence of current states the Machine has
// been in.  Consecutive repeats are recorded once.
func (m *Machine[T]) History() []State {
	acc := make([]State, len(m.history))
	copy(acc, m.history)
	return acc
}

func (m *Machine[T]) counts(s State) bool {
	n, have := m.Grammar.States[s]
	return have && n.Depth
}

func (m *Machine[T]) record() {
	cur := m.Current()
	if n := len(m.history); 0 < n && m.history[n-1] == cur {
		return
	}
	m.history = append(m.history, cur)
}

func (m *Machine[T]) push(s State, item T) {
	m.scopes = append(m.scopes, Scope[T]{State: s, Item: item})
	if m.counts(s) {
		m.depth++
	}
	m.record()
}

func (m *Machine[T]) pop() Scope[T] {
	i := len(m.scopes) - 1
	s := m.scopes[i]
	var zero Scope[T]
	m.scopes[i] = zero
	m.scopes = m.scopes[:i]
	if m.counts(s.State) {
		m.depth--
	}
	return s
}

func (m *Machine[T]) checkDepth(next State) error {
	if m.MaxDepth <= 0 || !m.counts(next) {
		return nil
	}
	if m.MaxDepth < m.depth+1 {
		return DepthExceeded(m.MaxDepth)
	}
	return nil
}

// Enter validates the move to next and pushes a new scope for it.
func (m *Machine[T]) Enter(next State, item T) error {
	if err := m.Grammar.Validate(m.Current(), next); err != nil {
		return err
	}
	if err := m.checkDepth(next); err != nil {
		return err
	}
	m.push(next, item)
	return nil
}

// Replace validates the move to next and swaps the current scope for
// a new one at the same depth.
func (m *Machine[T]) Replace(next State, item T) error {
	if err := m.Grammar.Validate(m.Current(), next); err != nil {
		return err
	}
	if len(m.scopes) == 1 {
		return &SequenceError{
			Grammar: m.Grammar.Name,
			From:    m.Current(),
			To:      next,
		}
	}
	old := m.pop()
	if err := m.checkDepth(next); err != nil {
		m.push(old.State, old.Item)
		return err
	}
	m.push(next, item)
	return nil
}

// Leave closes the current scope.
//
// When the scope being closed is the outermost open one, the move to
// the completed state is validated and the bottom of the stack
// becomes the completed state.
func (m *Machine[T]) Leave() error {
	if len(m.scopes) < 2 {
		return &SequenceError{
			Grammar: m.Grammar.Name,
			From:    m.Current(),
			To:      m.Grammar.CompletedState(),
		}
	}
	if len(m.scopes) == 2 {
		done := m.Grammar.CompletedState()
		if err := m.Grammar.Validate(m.Current(), done); err != nil {
			return err
		}
		m.pop()
		m.pop()
		var zero T
		m.push(done, zero)
		return nil
	}
	m.pop()
	m.record()
	return nil
}

// Fail latches the Machine into the Grammar's error state.
//
// Fail does nothing when the Machine has already failed, so a
// completed Machine can still fail (a flush after completion can).
// It reports whether it latched.
func (m *Machine[T]) Fail() bool {
	if m.Kind() == KindError {
		return false
	}
	var zero T
	m.push(m.Grammar.ErrorState(), zero)
	return true
}

// Latch is Fail for use as a Latcher.  The error is ignored.
func (m *Machine[T]) Latch(err error) bool {
	return m.Fail()
}
