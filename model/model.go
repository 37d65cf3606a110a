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

// Package model provides the type schema that writers validate
// against.
//
// A Model is built from a declarative Document (usually YAML) by
// Compile.  Writers never change a Model, so one Model can be shared
// by any number of writers.
package model

import (
	"sort"
	"strings"
)

// Resolver looks up declared schema elements by name.  Names can be
// qualified ("NS.Customer") or, for a Model with a namespace,
// unqualified.
type Resolver interface {
	Operation(name string) (*Operation, bool)
	StructuredType(name string) (*StructuredType, bool)
	EnumType(name string) (*EnumType, bool)
	TypeDefinition(name string) (*TypeDefinition, bool)
	EntitySet(name string) (*EntitySet, bool)
}

// Model is a compiled Document.
type Model struct {
	Namespace string

	enums    map[string]*EnumType
	typedefs map[string]*TypeDefinition
	types    map[string]*StructuredType
	ops      map[string]*Operation
	sets     map[string]*EntitySet

	doc *Document
}

// Document returns the Document the Model was compiled from.
func (m *Model) Document() *Document {
	return m.doc
}

func (m *Model) qualify(name string) string {
	if m.Namespace == "" || strings.Contains(name, ".") {
		return name
	}
	return m.Namespace + "." + name
}

func (m *Model) Operation(name string) (*Operation, bool) {
	op, have := m.ops[m.qualify(name)]
	return op, have
}

func (m *Model) StructuredType(name string) (*StructuredType, bool) {
	t, have := m.types[m.qualify(name)]
	return t, have
}

func (m *Model) EnumType(name string) (*EnumType, bool) {
	t, have := m.enums[m.qualify(name)]
	return t, have
}

func (m *Model) TypeDefinition(name string) (*TypeDefinition, bool) {
	t, have := m.typedefs[m.qualify(name)]
	return t, have
}

func (m *Model) EntitySet(name string) (*EntitySet, bool) {
	s, have := m.sets[name]
	return s, have
}

// Operations returns the names of all operations.
func (m *Model) Operations() []string {
	acc := make([]string, 0, len(m.ops))
	for name := range m.ops {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Operation is an action or a function.
type Operation struct {
	// Name is qualified.
	Name string

	// Kind is "action" or "function".
	Kind string

	// Bound operations take the instance they're bound to as
	// their first parameter.
	Bound bool

	Parameters []*Parameter
}

// Parameter finds a parameter by name.
func (op *Operation) Parameter(name string) (*Parameter, bool) {
	for _, p := range op.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Parameter is a declared operation parameter.
type Parameter struct {
	Name string
	Type *TypeRef
}

// EnumType is a declared enumeration.
type EnumType struct {
	Name    string
	Members []string
	Flags   bool
}

// Has reports whether v is a member (or, for flags, a comma-separated
// list of members).
func (e *EnumType) Has(v string) bool {
	if e.Flags {
		for _, part := range strings.Split(v, ",") {
			if !e.has(strings.TrimSpace(part)) {
				return false
			}
		}
		return true
	}
	return e.has(v)
}

func (e *EnumType) has(v string) bool {
	for _, m := range e.Members {
		if m == v {
			return true
		}
	}
	return false
}

// TypeDefinition is a named alias of a primitive type.
type TypeDefinition struct {
	Name       string
	Underlying string
}

// EntitySet is a named collection of entities.
type EntitySet struct {
	Name string
	Type *StructuredType
}

// StructuredType is a complex or entity type.
type StructuredType struct {
	// Name is qualified.
	Name string

	// Kind is ComplexKind or EntityKind.
	Kind TypeKind

	Base     *StructuredType
	Abstract bool

	// Open types accept undeclared properties.
	Open bool

	// HasStream marks a media link entry.
	HasStream bool

	Properties []*Property
	Navigation []*NavigationProperty
}

// Ref returns a TypeRef for the type.
func (t *StructuredType) Ref(nullable bool) *TypeRef {
	return &TypeRef{Kind: t.Kind, Name: t.Name, Nullable: nullable}
}

// Property finds a declared structural property, searching base
// types.
func (t *StructuredType) Property(name string) (*Property, bool) {
	for s := t; s != nil; s = s.Base {
		for _, p := range s.Properties {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// NavigationProperty finds a declared navigation property, searching
// base types.
func (t *StructuredType) NavigationProperty(name string) (*NavigationProperty, bool) {
	for s := t; s != nil; s = s.Base {
		for _, p := range s.Navigation {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// DerivesFrom reports whether t is base or a subtype of it.
func (t *StructuredType) DerivesFrom(base *StructuredType) bool {
	for s := t; s != nil; s = s.Base {
		if s == base || s.Name == base.Name {
			return true
		}
	}
	return false
}

// IsMediaLinkEntry reports whether instances carry a media resource.
// The flag is inherited.
func (t *StructuredType) IsMediaLinkEntry() bool {
	for s := t; s != nil; s = s.Base {
		if s.HasStream {
			return true
		}
	}
	return false
}

// Property is a declared structural property.
type Property struct {
	Name string
	Type *TypeRef

	// DerivedTypeConstraint, when not empty, is the closed set
	// of subtypes allowed as values.
	DerivedTypeConstraint []string
}

// NavigationProperty is a declared relationship.
type NavigationProperty struct {
	Name string

	// Type is an entity TypeRef or a collection of them.
	Type *TypeRef

	Contained             bool
	DerivedTypeConstraint []string
}

// IsCollection reports whether the relationship is to many.
func (n *NavigationProperty) IsCollection() bool {
	return n.Type.IsCollection()
}

// Target returns the entity type name on the far side.
func (n *NavigationProperty) Target() string {
	if n.Type.IsCollection() {
		return n.Type.Elem.Name
	}
	return n.Type.Name
}
