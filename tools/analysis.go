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

package tools

import (
	"sort"

	"github.com/Comcast/quill/core"
)

// Analysis summarizes the structure of a Grammar.
type Analysis struct {
	Name        string
	States      int
	Transitions int

	// DepthStates are the states that count a level of nesting.
	DepthStates []string

	// Unreachable states can't be entered from the start state.
	// The error state is reachable from everywhere and is never
	// listed.
	Unreachable []string

	// DeadEnds are non-terminal states with no targets.  Writers
	// leave such states by popping them.
	DeadEnds []string

	// Stuck states can't reach the completed state.
	Stuck []string

	Errors []string
}

// Analyze examines a Grammar.  The Grammar should be compiled.
func Analyze(g *core.Grammar) *Analysis {
	a := &Analysis{
		Name:   g.Name,
		States: len(g.States),
	}
	if !g.Compiled() {
		if err := g.Copy().Compile(); err != nil {
			a.Errors = append(a.Errors, err.Error())
		}
		return a
	}

	reached := reach(g, g.StartState(), func(n *core.Node) []core.State { return n.Targets })

	// Reverse edges to find what can get to completed.
	preds := make(map[core.State][]core.State)
	for _, name := range g.Names() {
		n := g.States[name]
		a.Transitions += len(n.Targets)
		if n.Depth {
			a.DepthStates = append(a.DepthStates, string(name))
		}
		for _, t := range n.Targets {
			preds[t] = append(preds[t], name)
		}
		if !n.Kind.Terminal() && len(n.Targets) == 0 {
			a.DeadEnds = append(a.DeadEnds, string(name))
		}
	}
	finishing := make(map[core.State]bool)
	var walk func(core.State)
	walk = func(s core.State) {
		if finishing[s] {
			return
		}
		finishing[s] = true
		for _, p := range preds[s] {
			walk(p)
		}
	}
	walk(g.CompletedState())

	for _, name := range g.Names() {
		if name == g.ErrorState() {
			continue
		}
		if !reached[name] {
			a.Unreachable = append(a.Unreachable, string(name))
		}
		n := g.States[name]
		// A dead end is left by popping back to its parent, so
		// it's not stuck.
		if !finishing[name] && 0 < len(n.Targets) {
			a.Stuck = append(a.Stuck, string(name))
		}
	}
	sort.Strings(a.DepthStates)
	return a
}

func reach(g *core.Grammar, from core.State, next func(*core.Node) []core.State) map[core.State]bool {
	seen := map[core.State]bool{from: true}
	todo := []core.State{from}
	for 0 < len(todo) {
		s := todo[0]
		todo = todo[1:]
		n, have := g.States[s]
		if !have {
			continue
		}
		for _, t := range next(n) {
			if !seen[t] {
				seen[t] = true
				todo = append(todo, t)
			}
		}
	}
	return seen
}
