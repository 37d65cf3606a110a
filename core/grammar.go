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
	"sort"

	"gopkg.in/yaml.v2"
)

// State is the name of a state in a Grammar.
type State string

// Kind classifies a State.
type Kind string

const (
	// KindStart is the state of a writer that hasn't written
	// anything yet.  A Grammar has exactly one.
	KindStart Kind = "start"

	// KindOpen states admit further structural writes.
	KindOpen Kind = "open"

	// KindActiveChild states wait for a nested writer to finish.
	KindActiveChild Kind = "activeChild"

	// KindCompleted is terminal success.
	KindCompleted Kind = "completed"

	// KindError is terminal failure.
	KindError Kind = "error"
)

// Terminal reports whether the kind is absorbing.
func (k Kind) Terminal() bool {
	return k == KindCompleted || k == KindError
}

// Grammar is the transition table for one kind of writer.
//
// A Grammar says nothing about what a writer emits.  It only says
// which moves between states are legal.
type Grammar struct {
	// Name is something like "parameter" or "resource".
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Doc is general documentation about the writer.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	States map[State]*Node `json:"states,omitempty" yaml:",omitempty"`

	start     State
	completed State
	failed    State
	compiled  bool
}

// Node is the structure of one state.
type Node struct {
	Doc  string `json:"doc,omitempty" yaml:",omitempty"`
	Kind Kind   `json:"kind" yaml:"kind"`

	// Depth means that entering this state counts as one level of
	// nesting.
	Depth bool `json:"depth,omitempty" yaml:",omitempty"`

	// Targets are the states that can follow this one.  A
	// transition to the Grammar's error state is always legal
	// and need not be listed.
	Targets []State `json:"targets,omitempty" yaml:",omitempty"`
}

// Copy makes a deep copy of the Node.
func (n *Node) Copy() *Node {
	ts := make([]State, len(n.Targets))
	copy(ts, n.Targets)
	return &Node{
		Doc:     n.Doc,
		Kind:    n.Kind,
		Depth:   n.Depth,
		Targets: ts,
	}
}

// ParseGrammar reads a YAML Grammar and compiles it.
func ParseGrammar(bs []byte) (*Grammar, error) {
	var g Grammar
	if err := yaml.Unmarshal(bs, &g); err != nil {
		return nil, err
	}
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return &g, nil
}

// MustParseGrammar is ParseGrammar that panics on error.  Use it for
// grammars that ship with the program.
func MustParseGrammar(bs []byte) *Grammar {
	g, err := ParseGrammar(bs)
	if err != nil {
		panic(err)
	}
	return g
}

// Copy makes a deep, uncompiled copy of the Grammar.
func (g *Grammar) Copy() *Grammar {
	ns := make(map[State]*Node, len(g.States))
	for name, n := range g.States {
		ns[name] = n.Copy()
	}
	return &Grammar{
		Name:   g.Name,
		Doc:    g.Doc,
		States: ns,
	}
}

// Compile checks the structure of the Grammar and finds its start,
// completed, and error states.
func (g *Grammar) Compile() error {
	g.compiled = false
	g.start, g.completed, g.failed = "", "", ""

	bad := func(problem string) error {
		return &BadGrammar{Grammar: g, Problem: problem}
	}

	for _, name := range g.Names() {
		n := g.States[name]
		if n == nil {
			return bad(`state "` + string(name) + `" has no definition`)
		}
		var slot *State
		switch n.Kind {
		case KindStart:
			slot = &g.start
		case KindCompleted:
			slot = &g.completed
		case KindError:
			slot = &g.failed
		case KindOpen, KindActiveChild:
		default:
			return bad(`state "` + string(name) + `" has unknown kind "` + string(n.Kind) + `"`)
		}
		if slot != nil {
			if *slot != "" {
				return bad(`more than one ` + string(n.Kind) + ` state`)
			}
			*slot = name
		}
		if n.Kind.Terminal() && 0 < len(n.Targets) {
			return bad(`terminal state "` + string(name) + `" has targets`)
		}
		for _, t := range n.Targets {
			if _, have := g.States[t]; !have {
				return &UnknownState{Grammar: g, State: t}
			}
		}
	}

	switch {
	case g.start == "":
		return bad("no start state")
	case g.completed == "":
		return bad("no completed state")
	case g.failed == "":
		return bad("no error state")
	}

	g.compiled = true
	return nil
}

// Compiled reports whether Compile succeeded.
func (g *Grammar) Compiled() bool {
	return g.compiled
}

// StartState returns the name of the start state.
func (g *Grammar) StartState() State {
	return g.start
}

// CompletedState returns the name of the completed state.
func (g *Grammar) CompletedState() State {
	return g.completed
}

// ErrorState returns the name of the error state.
func (g *Grammar) ErrorState() State {
	return g.failed
}

// Names returns the Grammar's state names in lexical order.
func (g *Grammar) Names() []State {
	acc := make([]State, 0, len(g.States))
	for name := range g.States {
		acc = append(acc, name)
	}
	sort.Slice(acc, func(i, j int) bool { return acc[i] < acc[j] })
	return acc
}

// KindOf returns the kind of the given state.  An unknown state has
// kind "".
func (g *Grammar) KindOf(s State) Kind {
	if n, have := g.States[s]; have {
		return n.Kind
	}
	return ""
}

// Validate decides whether the move from -> to is legal.
//
// A move to the error state is legal from anywhere (including the
// error state itself) and is checked first.  Otherwise to must be
// one of from's targets.
func (g *Grammar) Validate(from, to State) error {
	if !g.compiled {
		return &GrammarNotCompiled{Grammar: g}
	}
	n, have := g.States[from]
	if !have {
		return &UnknownState{Grammar: g, State: from}
	}
	if _, have := g.States[to]; !have {
		return &UnknownState{Grammar: g, State: to}
	}
	if to == g.failed {
		return nil
	}
	for _, t := range n.Targets {
		if t == to {
			return nil
		}
	}
	return &SequenceError{
		Grammar: g.Name,
		From:    from,
		To:      to,
	}
}
