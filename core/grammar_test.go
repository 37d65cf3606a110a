/* Copyright 2021 Comcast Cable Communications Management, LLC
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
	"errors"
	"strings"
	"testing"
)

var paramsGrammarSrc = `
name: params
doc: A small parameter-like grammar.
states:
  start:
    kind: start
    targets: [open, completed]
  open:
    kind: open
    depth: true
    targets: [open, child, completed]
  child:
    kind: activeChild
    targets: [open]
  completed:
    kind: completed
  error:
    kind: error
`

func paramsGrammar(t *testing.T) *Grammar {
	g, err := ParseGrammar([]byte(paramsGrammarSrc))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGrammarCompile(t *testing.T) {
	g := paramsGrammar(t)
	if g.StartState() != "start" || g.CompletedState() != "completed" || g.ErrorState() != "error" {
		t.Fatalf("unexpected special states %q %q %q", g.StartState(), g.CompletedState(), g.ErrorState())
	}
	if !g.States["open"].Depth {
		t.Fatal("open should count toward depth")
	}
}

func TestGrammarCompileProblems(t *testing.T) {
	tests := []struct {
		description string
		states      map[State]*Node
		want        string
	}{
		{
			description: "no start",
			states: map[State]*Node{
				"done": {Kind: KindCompleted},
				"oops": {Kind: KindError},
			},
			want: "no start state",
		},
		{
			description: "two starts",
			states: map[State]*Node{
				"a":    {Kind: KindStart},
				"b":    {Kind: KindStart},
				"done": {Kind: KindCompleted},
				"oops": {Kind: KindError},
			},
			want: "more than one start state",
		},
		{
			description: "no error",
			states: map[State]*Node{
				"a":    {Kind: KindStart, Targets: []State{"done"}},
				"done": {Kind: KindCompleted},
			},
			want: "no error state",
		},
		{
			description: "terminal with targets",
			states: map[State]*Node{
				"a":    {Kind: KindStart},
				"done": {Kind: KindCompleted, Targets: []State{"a"}},
				"oops": {Kind: KindError},
			},
			want: `terminal state "done" has targets`,
		},
		{
			description: "unknown target",
			states: map[State]*Node{
				"a":    {Kind: KindStart, Targets: []State{"nowhere"}},
				"done": {Kind: KindCompleted},
				"oops": {Kind: KindError},
			},
			want: `state "nowhere" not found`,
		},
		{
			description: "unknown kind",
			states: map[State]*Node{
				"a":    {Kind: "sideways"},
				"done": {Kind: KindCompleted},
				"oops": {Kind: KindError},
			},
			want: `unknown kind "sideways"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			g := &Grammar{Name: "test", States: tc.states}
			err := g.Compile()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %q, wanted %q", err, tc.want)
			}
			if g.Compiled() {
				t.Fatal("shouldn't be compiled")
			}
		})
	}
}

func TestGrammarValidate(t *testing.T) {
	g := paramsGrammar(t)
	tests := []struct {
		from, to State
		legal    bool
	}{
		{"start", "open", true},
		{"start", "completed", true},
		{"start", "child", false},
		{"open", "open", true},
		{"open", "child", true},
		{"open", "completed", true},
		{"child", "open", true},
		{"child", "completed", false},
		{"completed", "open", false},
		{"completed", "completed", false},
		{"error", "open", false},
		{"error", "error", true},
		{"start", "error", true},
		{"child", "error", true},
		{"completed", "error", true},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			err := g.Validate(tc.from, tc.to)
			if tc.legal && err != nil {
				t.Fatal(err)
			}
			if !tc.legal {
				var seq *SequenceError
				if !errors.As(err, &seq) {
					t.Fatalf("expected a SequenceError, got %v", err)
				}
			}
		})
	}
}

func TestGrammarValidateUncompiled(t *testing.T) {
	g := paramsGrammar(t).Copy()
	var nc *GrammarNotCompiled
	if err := g.Validate("start", "open"); !errors.As(err, &nc) {
		t.Fatalf("expected GrammarNotCompiled, got %v", err)
	}
	if err := g.Compile(); err != nil {
		t.Fatal(err)
	}
	var us *UnknownState
	if err := g.Validate("start", "elsewhere"); !errors.As(err, &us) {
		t.Fatalf("expected UnknownState, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&SequenceError{Grammar: "g", From: "a", To: "b"}, "sequence"},
		{&SchemaError{Msg: "x"}, "schema"},
		{DepthExceeded(3), "shape"},
		{&ConfigError{Msg: "x"}, "config"},
		{ErrDisposed, "disposed"},
		{errors.New("broken pipe"), "other"},
	}
	for _, tc := range tests {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if msg := DepthExceeded(3).Error(); !strings.Contains(msg, "3") {
		t.Fatalf("limit missing from %q", msg)
	}
}
