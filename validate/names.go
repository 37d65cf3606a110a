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

// Package validate is the catalog of semantic rules that writers
// apply.
//
// Each rule is an independent function that returns nil or one of
// the core error types.  Rules never change anything; the writer
// decides when to call them and in what order.
package validate

import (
	"strings"

	"github.com/Comcast/quill/core"
	"github.com/Comcast/quill/model"
)

// ReservedChars can't appear in property or link names.
var ReservedChars = []rune{':', '.', '@'}

// NameSet is the set of names already written at one level.  It
// only grows.
type NameSet struct {
	what  string
	names map[string]bool
	order []string
}

// NewNameSet makes an empty set.  What is used in messages, e.g.
// "parameter" or "property".
func NewNameSet(what string) *NameSet {
	return &NameSet{
		what:  what,
		names: make(map[string]bool),
	}
}

// Add records the name or returns a ShapeError if it's already
// there.  Names are compared exactly.
func (s *NameSet) Add(name string) error {
	if s.names[name] {
		return &core.ShapeError{
			Msg: "duplicate " + s.what + " name '" + name + "'",
		}
	}
	s.names[name] = true
	s.order = append(s.order, name)
	return nil
}

func (s *NameSet) Has(name string) bool {
	return s.names[name]
}

func (s *NameSet) Len() int {
	return len(s.order)
}

// Names returns the names in the order they were added.
func (s *NameSet) Names() []string {
	acc := make([]string, len(s.order))
	copy(acc, s.order)
	return acc
}

// quoteList renders 'a', 'b', 'c'.
func quoteList(xs []string) string {
	qs := make([]string, len(xs))
	for i, x := range xs {
		qs[i] = "'" + x + "'"
	}
	return strings.Join(qs, ", ")
}

// ParameterName rejects an empty parameter name.
func ParameterName(name string) error {
	if name == "" {
		return &core.SchemaError{Msg: "parameter name must not be empty"}
	}
	return nil
}

func checkName(what, name string) error {
	if name == "" {
		return &core.SchemaError{Msg: what + " name must not be empty"}
	}
	var bad []string
	for _, c := range ReservedChars {
		if strings.ContainsRune(name, c) {
			bad = append(bad, string(c))
		}
	}
	if 0 < len(bad) {
		return &core.SchemaError{
			Msg: what + " name '" + name + "' contains reserved characters " + quoteList(bad),
		}
	}
	return nil
}

// PropertyName rejects an empty name or one with ReservedChars.
func PropertyName(name string) error {
	return checkName("property", name)
}

// LinkName rejects an empty nested resource info name or one with
// ReservedChars.
func LinkName(name string) error {
	return checkName("nested resource info", name)
}

// MissingParameters reports every declared parameter that's neither
// written nor nullable, in declaration order.
//
// The first parameter of a bound operation is the binding parameter.
// It is optional in the payload and is never reported.
func MissingParameters(op *model.Operation, written *NameSet) error {
	if op == nil {
		return nil
	}
	var missing []string
	for i, p := range op.Parameters {
		if i == 0 && op.Bound {
			continue
		}
		if written.Has(p.Name) || p.Type == nil || p.Type.Nullable {
			continue
		}
		missing = append(missing, p.Name)
	}
	if len(missing) == 0 {
		return nil
	}
	what := "parameter"
	if 1 < len(missing) {
		what = "parameters"
	}
	return &core.SchemaError{
		Msg: "missing " + what + " " + quoteList(missing) + " in payload of operation '" + op.Name + "'",
	}
}
